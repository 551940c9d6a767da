package captions

// ObservationSource identifies where a timing observation came from.
type ObservationSource string

const (
	// ObservationTranscribed marks timings reported by a speech recognizer.
	ObservationTranscribed ObservationSource = "transcribed"
	// ObservationProviderBoundary marks word boundaries reported by a TTS provider.
	ObservationProviderBoundary ObservationSource = "provider_boundary"
	// ObservationEstimated marks timings synthesized without acoustic evidence.
	ObservationEstimated ObservationSource = "estimated"
)

// TimingObservation is one word plus a time interval as reported by an
// external timing source. Observations are read-only inputs to a run.
type TimingObservation struct {
	Text       string            `json:"text"`
	Start      float64           `json:"start"`
	End        float64           `json:"end"`
	Confidence float64           `json:"confidence"`
	Source     ObservationSource `json:"source"`
}

// ScriptToken is a single word of the canonical script. Display preserves the
// original casing and punctuation; Normalized is the lowercase
// punctuation-stripped form used for matching.
type ScriptToken struct {
	Display    string
	Normalized string
	Index      int
}

// WordSource records how an aligned word obtained its timing.
type WordSource string

const (
	WordMatched   WordSource = "matched"
	WordLookahead WordSource = "lookahead_matched"
	WordEstimated WordSource = "estimated"
)

// AlignedWord is one script token with resolved timing. The aligner emits
// exactly one AlignedWord per ScriptToken, in script order.
type AlignedWord struct {
	Token      ScriptToken
	Start      float64
	End        float64
	Confidence float64
	Source     WordSource
}

// Cue is a single on-screen caption block: one or two lines of text displayed
// over [Start, End), carrying the repaired words it was built from.
type Cue struct {
	Start float64
	End   float64
	Lines []string
	Words []AlignedWord
}

// HighlightWindow tells a karaoke-style renderer when to show one word of a
// cue in the active style. The interval is the word's own repaired timing.
type HighlightWindow struct {
	WordIndex int     `json:"word_index"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// Highlights returns the per-word highlight windows for the cue, in word order.
func (c Cue) Highlights() []HighlightWindow {
	windows := make([]HighlightWindow, 0, len(c.Words))
	for i, word := range c.Words {
		windows = append(windows, HighlightWindow{WordIndex: i, Start: word.Start, End: word.End})
	}
	return windows
}

// Text returns the cue's display text with lines joined by newlines.
func (c Cue) Text() string {
	switch len(c.Lines) {
	case 0:
		return ""
	case 1:
		return c.Lines[0]
	default:
		return c.Lines[0] + "\n" + c.Lines[1]
	}
}
