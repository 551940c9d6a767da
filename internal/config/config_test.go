package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/config"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("OPENROUTER_API_KEY", "llm-key")
	t.Setenv("ELEVENLABS_API_KEY", "tts-key")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-env")
	t.Setenv("PEXELS_API_KEY", "stock-key")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	setRequiredSecrets(t)

	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Workflow.MaxConcurrentItems != 3 {
		t.Errorf("max_concurrent_items = %d, want 3", cfg.Workflow.MaxConcurrentItems)
	}
	if cfg.Captions.MaxCharsPerLine != 25 || cfg.Captions.MaxLinesPerCue != 1 {
		t.Errorf("caption defaults = %+v", cfg.Captions)
	}
	if cfg.LLM.APIKey != "llm-key" {
		t.Errorf("llm key not picked up from env: %q", cfg.LLM.APIKey)
	}
	if !filepath.IsAbs(cfg.Paths.WorkDir) {
		t.Errorf("work_dir not expanded: %q", cfg.Paths.WorkDir)
	}
}

func TestLoadParsesFile(t *testing.T) {
	setRequiredSecrets(t)

	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
work_dir = "`+dir+`/work"
output_dir = "`+dir+`/out"
log_dir = "`+dir+`/logs"

[tts]
voice_id = "voice-123"

[captions]
max_chars_per_line = 32
max_lines_per_cue = 2
karaoke = true

[workflow]
max_concurrent_items = 5
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.TTS.VoiceID != "voice-123" {
		t.Errorf("voice_id = %q", cfg.TTS.VoiceID)
	}
	if cfg.Captions.MaxCharsPerLine != 32 || cfg.Captions.MaxLinesPerCue != 2 || !cfg.Captions.Karaoke {
		t.Errorf("captions = %+v", cfg.Captions)
	}
	if cfg.Workflow.MaxConcurrentItems != 5 {
		t.Errorf("max_concurrent_items = %d", cfg.Workflow.MaxConcurrentItems)
	}
}

func TestLoadRequiresLLMKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "tts-key")
	t.Setenv("PEXELS_API_KEY", "stock-key")

	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("expected llm.api_key error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*config.Config)
		fragment string
	}{
		{"bad lines per cue", func(c *config.Config) { c.Captions.MaxLinesPerCue = 3 }, "max_lines_per_cue"},
		{"bad timing source", func(c *config.Config) { c.Captions.TimingSource = "psychic" }, "timing_source"},
		{"bad orientation", func(c *config.Config) { c.Stock.Orientation = "diagonal" }, "orientation"},
		{"bad privacy", func(c *config.Config) {
			c.Publish.Enabled = true
			c.Publish.Privacy = "secret"
		}, "privacy"},
		{"heartbeat ordering", func(c *config.Config) {
			c.Workflow.HeartbeatInterval = 60
			c.Workflow.HeartbeatTimeout = 30
		}, "heartbeat_timeout"},
		{"zero concurrency", func(c *config.Config) { c.Workflow.MaxConcurrentItems = 0 }, "max_concurrent_items"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.LLM.APIKey = "k"
			cfg.TTS.APIKey = "k"
			cfg.TTS.VoiceID = "v"
			cfg.Stock.APIKey = "k"
			cfg.Captions.TimingSource = "auto"
			cfg.Publish.Privacy = "unlisted"
			cfg.Publish.TokenPath = "/tmp/token.json"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected error containing %q, got %v", tc.fragment, err)
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	setRequiredSecrets(t)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(dir, "work")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.AssetCacheDir = filepath.Join(dir, "cache")
	cfg.Paths.OutputDir = filepath.Join(dir, "out")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, sub := range []string{"work", "logs", "cache", "out"} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err != nil || !info.IsDir() {
			t.Errorf("directory %s not created: %v", sub, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	for _, section := range []string{"[paths]", "[llm]", "[tts]", "[captions]", "[workflow]"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("sample missing section %s", section)
		}
	}
}
