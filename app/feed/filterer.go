package feed

// Filterer narrows extracted places to the tracked set when tracking is enabled.
type Filterer struct {
	filter      PlaceFilter
	trackedOnly bool
}

func NewFilterer(filter PlaceFilter, trackedOnly bool) *Filterer {
	return &Filterer{
		filter:      filter,
		trackedOnly: trackedOnly,
	}
}

func (f *Filterer) Run(places []string) PlaceSet {
	kept := make(PlaceSet, 0, len(places))
	for _, place := range places {
		if f.trackedOnly && (f.filter == nil || !f.filter.Tracked(place)) {
			continue
		}
		kept = kept.Add(place)
	}
	return kept
}
