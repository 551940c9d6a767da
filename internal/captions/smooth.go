package captions

// clampSlack is how far past the known audio length the aligned sequence may
// run before the global rescale kicks in.
const clampSlack = 0.5

// clampTailMargin is the trailing margin left after rescaling so the last
// word never ends exactly at the audio boundary.
const clampTailMargin = 0.2

// Repair turns an aligned word sequence into a displayable one: every word
// gets at least its minimum duration, overlaps are resolved around their
// midpoint with a small gap on each side, and when the known total audio
// duration is materially exceeded the whole sequence is rescaled to fit.
// totalDuration <= 0 means the audio length is unknown and the clamp is
// skipped. Word order and count are always preserved; the second return
// value reports whether the clamp fired.
//
// The greedy matcher can produce locally plausible but globally inconsistent
// timings (estimated words packed too closely, provider drift accumulating
// past the real audio length); this pass exists to absorb that.
func Repair(words []AlignedWord, totalDuration, gap float64) ([]AlignedWord, bool) {
	if len(words) == 0 {
		return nil, false
	}
	if gap < 0 {
		gap = 0
	}

	out := make([]AlignedWord, len(words))
	copy(out, words)

	for i := range out {
		minDur := minWordDuration(out[i].Token.Display)
		if out[i].End-out[i].Start < minDur {
			out[i].End = out[i].Start + minDur
		}
	}

	// Forward pass: pull an overlapping word's end back to just before the
	// midpoint of the overlap.
	for i := 0; i+1 < len(out); i++ {
		if out[i].End > out[i+1].Start {
			midpoint := (out[i].End + out[i+1].Start) / 2
			out[i].End = midpoint - gap
		}
	}

	// Backward pass: push a word's start to just after its predecessor's end,
	// re-extending if that inverted the interval.
	for i := 1; i < len(out); i++ {
		if out[i].Start < out[i-1].End {
			out[i].Start = out[i-1].End + gap
			if out[i].End <= out[i].Start {
				out[i].End = out[i].Start + minWordDuration(out[i].Token.Display)
			}
		}
	}

	clamped := false
	if totalDuration > 0 {
		maxEnd := 0.0
		for _, word := range out {
			if word.End > maxEnd {
				maxEnd = word.End
			}
		}
		if maxEnd > totalDuration+clampSlack {
			factor := (totalDuration - clampTailMargin) / maxEnd
			for i := range out {
				out[i].Start *= factor
				out[i].End *= factor
			}
			clamped = true
		}
	}

	return out, clamped
}
