// Package llm wraps the OpenRouter chat completion API for script
// generation. The client retries transient failures with exponential
// backoff and tolerates the JSON formatting quirks different upstream
// models exhibit (code fences, streaming deltas, tool-call payloads).
package llm
