// Package textutil provides small text helpers for filesystem-safe names
// derived from user-facing strings such as video titles.
package textutil

import "strings"

const maxSlugLength = 48

// Slugify converts a title into a lowercase hyphenated token safe for use
// in filenames. Runs of spaces, dots, hyphens, and underscores collapse to
// a single hyphen, other non-alphanumeric runes are dropped, and the result
// is capped at 48 characters. The fallback is returned when nothing
// survives sanitization.
func Slugify(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var builder strings.Builder
	lastHyphen := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_' || r == '.':
			if !lastHyphen && builder.Len() > 0 {
				builder.WriteRune('-')
				lastHyphen = true
			}
		}
		if builder.Len() >= maxSlugLength {
			break
		}
	}
	result := strings.Trim(builder.String(), "-")
	if result == "" {
		return fallback
	}
	return result
}
