package validators

import (
	"strings"
	"unicode"
)

// SanitizeSearch normalises a free-text filter: control characters are
// dropped, whitespace runs collapse to one space and the result is capped at
// maxRunes characters.
func SanitizeSearch(input string, maxRunes int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
	collapsed := strings.Join(strings.Fields(cleaned), " ")
	if maxRunes > 0 {
		if runes := []rune(collapsed); len(runes) > maxRunes {
			return strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return collapsed
}
