package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Secrets get placeholder values so Validate-sensitive code paths work.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.AssetCacheDir = filepath.Join(base, "assets")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.LLM.APIKey = "test-llm-key"
	cfg.TTS.APIKey = "test-tts-key"
	cfg.TTS.VoiceID = "test-voice"
	cfg.Stock.APIKey = "test-stock-key"
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWhisperEnabled toggles WhisperX transcription on the test config.
func WithWhisperEnabled(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Whisper.Enabled = enabled
	}
}

// WithStockDisabled turns off stock footage sourcing on the test config.
func WithStockDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Stock.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
