package validators

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// SanitizeText strips markup from user-supplied free text and trims it.
// Entities are decoded again so a plain "&" survives. maxLen counts runes;
// zero means unbounded.
func SanitizeText(input string, maxLen int) string {
	clean := strings.ReplaceAll(input, "\x00", "")
	clean = html.UnescapeString(strict.Sanitize(clean))
	clean = strings.TrimSpace(clean)
	if maxLen > 0 && utf8.RuneCountInString(clean) > maxLen {
		clean = string([]rune(clean)[:maxLen])
	}
	return clean
}

// SanitizeOptional applies SanitizeText to a non-nil pointer.
func SanitizeOptional(input *string, maxLen int) *string {
	if input == nil {
		return nil
	}
	clean := SanitizeText(*input, maxLen)
	return &clean
}
