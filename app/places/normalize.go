package places

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes diacritics: "São Paulo" becomes "Sao Paulo".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// DisplayName turns a catalog key into its human form ("New_York_City" -> "New York City").
func DisplayName(name string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(name, "_", " ")), " ")
}

// Normalize maps a place name to its comparison key. Case, underscores vs spaces
// and diacritics do not affect the result.
func Normalize(name string) string {
	return cases.Fold().String(stripMarks(DisplayName(name)))
}
