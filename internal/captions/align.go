package captions

import "unicode/utf8"

const (
	// estimatedWordGap is inserted before a word placed without any
	// observation to draw timing from.
	estimatedWordGap = 0.1
	// lookaheadConfidenceScale discounts matches found past the cursor.
	lookaheadConfidenceScale = 0.8
	// substitutionConfidence is assigned when the cursor observation is
	// consumed for a token it does not textually match.
	substitutionConfidence = 0.6
	// estimatedConfidence is assigned when no observation is left at all.
	estimatedConfidence = 0.5
)

// minWordDuration is the shortest plausible display time for a word: 0.2s or
// 80ms per character, whichever is larger.
func minWordDuration(text string) float64 {
	duration := 0.08 * float64(utf8.RuneCountInString(text))
	if duration < 0.2 {
		return 0.2
	}
	return duration
}

// Align matches each script token to a timing observation, in order, tracking
// a single cursor into the observation list. The output always has exactly
// one word per token: substitutions, insertions, and deletions by the timing
// source are absorbed rather than propagated, so the script keeps continuous
// timing coverage even when the recognizer mis-heard words.
//
// Lookahead is bounded (never more than lookahead observations past the
// cursor) so one bad stretch cannot drag the cursor arbitrarily far forward.
func Align(observations []TimingObservation, tokens []ScriptToken, lookahead int) []AlignedWord {
	if lookahead < 0 {
		lookahead = 0
	}
	words := make([]AlignedWord, 0, len(tokens))
	cursor := 0

	for _, token := range tokens {
		if cursor >= len(observations) {
			words = append(words, estimateWord(token, words))
			continue
		}

		current := observations[cursor]
		if normalizeWord(current.Text) == token.Normalized {
			words = append(words, observedWord(token, current, current.Confidence, WordMatched))
			cursor++
			continue
		}

		if found := scanAhead(observations, cursor, lookahead, token.Normalized); found >= 0 {
			obs := observations[found]
			words = append(words, observedWord(token, obs, obs.Confidence*lookaheadConfidenceScale, WordLookahead))
			cursor = found + 1
			continue
		}

		// Treat the mismatch as a substitution: consuming the observation
		// anyway keeps the cursor in sync with the audio.
		words = append(words, observedWord(token, current, substitutionConfidence, WordEstimated))
		cursor++
	}

	return words
}

func scanAhead(observations []TimingObservation, cursor, lookahead int, normalized string) int {
	limit := cursor + lookahead
	for i := cursor + 1; i <= limit && i < len(observations); i++ {
		if normalizeWord(observations[i].Text) == normalized {
			return i
		}
	}
	return -1
}

func observedWord(token ScriptToken, obs TimingObservation, confidence float64, source WordSource) AlignedWord {
	start := obs.Start
	end := obs.End
	if end <= start {
		end = start + minWordDuration(token.Display)
	}
	return AlignedWord{Token: token, Start: start, End: end, Confidence: confidence, Source: source}
}

func estimateWord(token ScriptToken, emitted []AlignedWord) AlignedWord {
	start := 0.0
	if len(emitted) > 0 {
		start = emitted[len(emitted)-1].End + estimatedWordGap
	}
	return AlignedWord{
		Token:      token,
		Start:      start,
		End:        start + minWordDuration(token.Display),
		Confidence: estimatedConfidence,
		Source:     WordEstimated,
	}
}
