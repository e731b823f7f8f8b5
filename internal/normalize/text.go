package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fold prepares free text for keyword matching. Hangul arriving in
// decomposed form would otherwise never match the composed keywords.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// capitalize upper-cases the first letter of s.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
