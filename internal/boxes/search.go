package boxes

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so "Boîte à Livres" matches
// "boite a livres".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and removes diacritics for accent-insensitive matching.
// Box names here are mostly French; plain ILIKE misses accented variants.
func fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// matchName reports whether the box name contains the query,
// accent- and case-insensitively.
func matchName(name, query string) bool {
	return strings.Contains(fold(name), fold(query))
}
