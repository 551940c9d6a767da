// Package whisper runs WhisperX (via uvx) against narration audio to
// recover word-level timings from the rendered waveform. The JSON output
// is converted to timing observations for the caption aligner.
package whisper
