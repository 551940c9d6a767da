// Package elevenlabs wraps the ElevenLabs text-to-speech API. Synthesis
// uses the with-timestamps endpoint so each run yields both the narration
// audio and per-word timing observations derived from the provider's
// character alignment.
package elevenlabs
