package captions

import (
	"strings"
	"testing"
)

func sequentialWords(displays ...string) []AlignedWord {
	words := make([]AlignedWord, 0, len(displays))
	start := 0.0
	for i, display := range displays {
		words = append(words, AlignedWord{
			Token:      ScriptToken{Display: display, Normalized: normalizeWord(display), Index: i},
			Start:      start,
			End:        start + 0.3,
			Confidence: 1.0,
			Source:     WordMatched,
		})
		start += 0.35
	}
	return words
}

func TestSegmentSplitsOnCharacterBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCharsPerLine = 10

	cues := Segment(sequentialWords("a", "bb", "ccc", "dddd"), opts)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if got := cues[0].Text(); got != "a bb ccc" {
		t.Errorf("first cue = %q, want %q", got, "a bb ccc")
	}
	if got := cues[1].Text(); got != "dddd" {
		t.Errorf("second cue = %q, want %q", got, "dddd")
	}
}

func TestSegmentSplitsOnDurationBudget(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCueDuration = 0.5

	// Each word runs 0.3s with a 0.05s gap: two words span 0.65s.
	cues := Segment(sequentialWords("a", "b", "c", "d"), opts)
	if len(cues) != 4 {
		t.Fatalf("expected 4 cues, got %d", len(cues))
	}
}

func TestSegmentOversizedWordGetsOwnCue(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCharsPerLine = 5

	cues := Segment(sequentialWords("ok", "extraordinarily", "ok"), opts)
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	if got := cues[1].Text(); got != "extraordinarily" {
		t.Errorf("oversized cue = %q", got)
	}
}

func TestSegmentCueTimingMatchesWords(t *testing.T) {
	opts := DefaultOptions()
	cues := Segment(sequentialWords("one", "two", "three"), opts)

	for i, cue := range cues {
		if len(cue.Words) == 0 {
			t.Fatalf("cue %d has no words", i)
		}
		approx(t, "cue start", cue.Start, cue.Words[0].Start)
		approx(t, "cue end", cue.End, cue.Words[len(cue.Words)-1].End)
	}
}

func TestSegmentTwoLineLayout(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCharsPerLine = 10
	opts.MaxLinesPerCue = 2
	opts.MaxCueDuration = 60

	cues := Segment(sequentialWords("a", "bb", "ccc", "dddd"), opts)
	if len(cues) != 1 {
		t.Fatalf("expected a single two-line cue, got %d", len(cues))
	}
	if len(cues[0].Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(cues[0].Lines), cues[0].Lines)
	}
	for _, line := range cues[0].Lines {
		if len([]rune(line)) > opts.MaxCharsPerLine {
			t.Errorf("line %q exceeds %d chars", line, opts.MaxCharsPerLine)
		}
	}
	if got := cues[0].Text(); got != "a bb ccc\ndddd" {
		t.Errorf("cue text = %q", got)
	}
}

func TestSegmentEveryWordAppearsExactlyOnce(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCharsPerLine = 8
	displays := strings.Fields("the quick brown fox jumps over the lazy dog")

	cues := Segment(sequentialWords(displays...), opts)
	var seen []string
	for _, cue := range cues {
		for _, word := range cue.Words {
			seen = append(seen, word.Token.Display)
		}
	}
	if strings.Join(seen, " ") != strings.Join(displays, " ") {
		t.Errorf("word sequence altered: %q", strings.Join(seen, " "))
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if cues := Segment(nil, DefaultOptions()); cues != nil {
		t.Fatalf("Segment(nil) = %v", cues)
	}
}

func TestCueHighlightsFollowWordTiming(t *testing.T) {
	cues := Segment(sequentialWords("one", "two"), DefaultOptions())
	if len(cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(cues))
	}
	windows := cues[0].Highlights()
	if len(windows) != 2 {
		t.Fatalf("expected 2 highlight windows, got %d", len(windows))
	}
	for i, window := range windows {
		if window.WordIndex != i {
			t.Errorf("window %d index = %d", i, window.WordIndex)
		}
		approx(t, "window start", window.Start, cues[0].Words[i].Start)
		approx(t, "window end", window.End, cues[0].Words[i].End)
	}
}
