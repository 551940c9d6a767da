package captions

// Report summarizes the quality of one run. A low average confidence or a
// fired duration clamp is a warning-level signal for the caller, never a
// failure.
type Report struct {
	Words             int
	Matched           int
	Lookahead         int
	Estimated         int
	AverageConfidence float64
	DurationClamped   bool
}

// Run executes the full pipeline on one content item: tokenize the script,
// align it against the observations, repair the timings, and segment the
// result into cues. totalDuration <= 0 means the audio length is unknown.
//
// Run is a pure function of its inputs; no state crosses runs. Empty input
// (no script tokens or no observations) yields an empty cue list, not an
// error: callers decide whether that is acceptable. The only fatal condition
// is an invalid Options value.
func Run(observations []TimingObservation, script string, totalDuration float64, opts Options) ([]Cue, Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, Report{}, err
	}

	tokens := Tokenize(script)
	if len(tokens) == 0 || len(observations) == 0 {
		return nil, Report{}, nil
	}

	aligned := Align(observations, tokens, opts.Lookahead)
	repaired, clamped := Repair(aligned, totalDuration, opts.SmoothingGap)
	cues := Segment(repaired, opts)

	report := Report{Words: len(repaired), DurationClamped: clamped}
	total := 0.0
	for _, word := range repaired {
		total += word.Confidence
		switch word.Source {
		case WordMatched:
			report.Matched++
		case WordLookahead:
			report.Lookahead++
		default:
			report.Estimated++
		}
	}
	if report.Words > 0 {
		report.AverageConfidence = total / float64(report.Words)
	}
	return cues, report, nil
}
