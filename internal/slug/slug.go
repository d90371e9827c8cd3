// Package slug turns category names into URL-safe identifiers.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	valid    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Make lowercases s, strips diacritics and joins the remaining
// alphanumeric runs with hyphens: "Best Shōnen!" becomes "best-shonen".
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Trim(nonAlnum.ReplaceAllString(folded, "-"), "-")
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}
