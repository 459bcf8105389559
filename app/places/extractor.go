package places

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

type surface struct {
	text    string // diacritic-free form searched in text
	display string // name reported to callers
}

type match struct {
	start, end int
	display    string
}

// Extractor finds known place names in free text. Matching is case-sensitive
// and insensitive to diacritics; a match must sit on word boundaries.
type Extractor struct {
	surfaces []surface
}

// NewExtractor builds an extractor from surface form -> display name pairs.
func NewExtractor(names map[string]string) *Extractor {
	seen := make(map[string]bool, len(names))
	surfaces := make([]surface, 0, len(names))
	for form, display := range names {
		text := stripMarks(DisplayName(form))
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		surfaces = append(surfaces, surface{text: text, display: DisplayName(display)})
	}

	// Longest first so "New York City" wins over "New York".
	sort.Slice(surfaces, func(i, j int) bool {
		if len(surfaces[i].text) != len(surfaces[j].text) {
			return len(surfaces[i].text) > len(surfaces[j].text)
		}
		return surfaces[i].text < surfaces[j].text
	})

	return &Extractor{surfaces: surfaces}
}

// Extract returns distinct place names in order of first appearance.
func (e *Extractor) Extract(text string) []string {
	if text == "" || len(e.surfaces) == 0 {
		return nil
	}

	folded := stripMarks(text)

	var matches []match
	for _, s := range e.surfaces {
		offset := 0
		for {
			idx := strings.Index(folded[offset:], s.text)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(s.text)
			offset = end

			if !atBoundary(folded, start, end) || overlaps(matches, start, end) {
				continue
			}
			matches = append(matches, match{start: start, end: end, display: s.display})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	var result []string
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if seen[m.display] {
			continue
		}
		seen[m.display] = true
		result = append(result, m.display)
	}

	return result
}

func atBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func overlaps(matches []match, start, end int) bool {
	for _, m := range matches {
		if start < m.end && m.start < end {
			return true
		}
	}
	return false
}
