package feed

// PlaceSet is an insertion-ordered set of place names.
type PlaceSet []string

func NewPlaceSet(names ...string) PlaceSet {
	var s PlaceSet
	for _, name := range names {
		s = s.Add(name)
	}
	return s
}

func (s PlaceSet) Contains(name string) bool {
	for _, existing := range s {
		if existing == name {
			return true
		}
	}
	return false
}

// Add appends name unless it is empty or already present.
func (s PlaceSet) Add(name string) PlaceSet {
	if name == "" || s.Contains(name) {
		return s
	}
	return append(s, name)
}

// Union returns s followed by the members of other not already in s.
func (s PlaceSet) Union(other PlaceSet) PlaceSet {
	out := make(PlaceSet, len(s), len(s)+len(other))
	copy(out, s)
	for _, name := range other {
		out = out.Add(name)
	}
	return out
}
