package captions

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks an impossible caption configuration. It is the only
// error the engine raises; every per-word anomaly is absorbed into
// confidence/source tags instead.
var ErrConfiguration = errors.New("captions: invalid configuration")

// Default budgets and tuning constants. Lookahead and the smoothing gap are
// deliberate behavior-parity values, not re-derived optima.
const (
	DefaultMaxCharsPerLine = 25
	DefaultMaxCueDuration  = 4.0
	DefaultLookahead       = 2
	DefaultSmoothingGap    = 0.05
)

// Options configures one alignment/segmentation run.
type Options struct {
	// MaxCharsPerLine is the visible character budget per cue line.
	MaxCharsPerLine int
	// MaxCueDuration is the maximum cue display time in seconds. A single
	// word longer than this still becomes a cue by itself.
	MaxCueDuration float64
	// MaxLinesPerCue is 1 or 2. In two-line mode the character budget is
	// applied per line rather than per cue.
	MaxLinesPerCue int
	// Lookahead bounds how many observations ahead the matcher may scan.
	Lookahead int
	// SmoothingGap is the margin in seconds kept on each side of an overlap
	// midpoint during repair.
	SmoothingGap float64
	// Karaoke enables per-word highlight windows on emitted cues.
	Karaoke bool
}

// DefaultOptions returns the engine defaults: single-line cues of at most 25
// characters and 4 seconds.
func DefaultOptions() Options {
	return Options{
		MaxCharsPerLine: DefaultMaxCharsPerLine,
		MaxCueDuration:  DefaultMaxCueDuration,
		MaxLinesPerCue:  1,
		Lookahead:       DefaultLookahead,
		SmoothingGap:    DefaultSmoothingGap,
	}
}

// Validate rejects configurations the segmenter cannot honor. A run must not
// start with invalid options.
func (o Options) Validate() error {
	if o.MaxCharsPerLine <= 0 {
		return fmt.Errorf("%w: max chars per line must be positive, got %d", ErrConfiguration, o.MaxCharsPerLine)
	}
	if o.MaxCueDuration <= 0 {
		return fmt.Errorf("%w: max cue duration must be positive, got %g", ErrConfiguration, o.MaxCueDuration)
	}
	if o.MaxLinesPerCue != 1 && o.MaxLinesPerCue != 2 {
		return fmt.Errorf("%w: max lines per cue must be 1 or 2, got %d", ErrConfiguration, o.MaxLinesPerCue)
	}
	if o.Lookahead < 0 {
		return fmt.Errorf("%w: lookahead must not be negative, got %d", ErrConfiguration, o.Lookahead)
	}
	if o.SmoothingGap < 0 {
		return fmt.Errorf("%w: smoothing gap must not be negative, got %g", ErrConfiguration, o.SmoothingGap)
	}
	return nil
}
