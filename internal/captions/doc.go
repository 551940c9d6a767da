// Package captions aligns a known narration script against word-level timing
// observations and produces display cues suitable for subtitle rendering.
//
// The pipeline is a pure computation: tokenize the script, fuzzy-match each
// token to a timing observation, repair the resulting intervals so they are
// non-overlapping and long enough to read, group words into cues under
// character and duration budgets, and serialize the cues as SRT. Timing
// sources (TTS provider boundaries, speech recognizers) are external; the
// engine only consumes their observations and never performs I/O.
package captions
