package captions

import (
	"regexp"
	"strings"
)

var wordNormalizeRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normalizeWord prepares a word for comparison by lowercasing and stripping
// punctuation. Matching the viewer-facing text this way tolerates
// transcription quirks like trailing commas or smart quotes.
func normalizeWord(s string) string {
	return wordNormalizeRe.ReplaceAllString(strings.ToLower(s), "")
}

// Tokenize splits the canonical script into ordered word tokens. Every
// non-whitespace run becomes exactly one token; whitespace-only input yields
// an empty slice.
func Tokenize(script string) []ScriptToken {
	fields := strings.Fields(script)
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]ScriptToken, 0, len(fields))
	for i, field := range fields {
		tokens = append(tokens, ScriptToken{
			Display:    field,
			Normalized: normalizeWord(field),
			Index:      i,
		})
	}
	return tokens
}
