package captions

import "strings"

// Segment greedily groups repaired words into display cues. A cue stays open
// while the next word still fits the character and duration budgets; when
// either budget would be exceeded and the cue already holds at least one
// word, the cue is closed and the word starts a new one. A budget can never
// be satisfied below one word, so a single oversized word becomes a cue by
// itself rather than an error.
func Segment(words []AlignedWord, opts Options) []Cue {
	if len(words) == 0 {
		return nil
	}

	var cues []Cue
	open := make([]AlignedWord, 0, 8)

	for _, word := range words {
		if len(open) > 0 && exceedsBudget(open, word, opts) {
			cues = append(cues, closeCue(open, opts))
			open = make([]AlignedWord, 0, 8)
		}
		open = append(open, word)
	}
	if len(open) > 0 {
		cues = append(cues, closeCue(open, opts))
	}
	return cues
}

// exceedsBudget reports whether adding next to the open cue would break the
// duration budget or leave the words unlayoutable within the configured
// lines. The same per-line character check drives both segmentation and
// line splitting, so two-line mode closes cues later than single-line mode.
func exceedsBudget(open []AlignedWord, next AlignedWord, opts Options) bool {
	if next.End-open[0].Start > opts.MaxCueDuration {
		return true
	}
	displays := make([]string, 0, len(open)+1)
	for _, word := range open {
		displays = append(displays, word.Token.Display)
	}
	displays = append(displays, next.Token.Display)
	return !fitsLines(displays, opts)
}

// fitsLines reports whether the words can be laid out greedily into at most
// MaxLinesPerCue lines of MaxCharsPerLine visible characters each.
func fitsLines(displays []string, opts Options) bool {
	line := 1
	length := 0
	for _, display := range displays {
		width := visibleWidth(display)
		switch {
		case length == 0:
			if width > opts.MaxCharsPerLine {
				return false
			}
			length = width
		case length+1+width <= opts.MaxCharsPerLine:
			length += 1 + width
		default:
			line++
			if line > opts.MaxLinesPerCue || width > opts.MaxCharsPerLine {
				return false
			}
			length = width
		}
	}
	return true
}

func closeCue(words []AlignedWord, opts Options) Cue {
	return Cue{
		Start: words[0].Start,
		End:   words[len(words)-1].End,
		Lines: splitLines(words, opts),
		Words: words,
	}
}

// splitLines lays the cue's words out greedily across the configured lines.
// The caller guarantees the words fit, except for the single-oversized-word
// cue, which occupies one line regardless of budget.
func splitLines(words []AlignedWord, opts Options) []string {
	lines := make([]string, 0, opts.MaxLinesPerCue)
	var current strings.Builder
	length := 0

	flush := func() {
		if current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			length = 0
		}
	}

	for _, word := range words {
		display := word.Token.Display
		width := visibleWidth(display)
		if length > 0 && length+1+width > opts.MaxCharsPerLine && len(lines)+1 < opts.MaxLinesPerCue {
			flush()
		}
		if length > 0 {
			current.WriteByte(' ')
			length++
		}
		current.WriteString(display)
		length += width
	}
	flush()
	return lines
}

func visibleWidth(s string) int {
	return len([]rune(s))
}
