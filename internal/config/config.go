package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir       string `toml:"work_dir"`
	OutputDir     string `toml:"output_dir"`
	LogDir        string `toml:"log_dir"`
	AssetCacheDir string `toml:"asset_cache_dir"`
	APIBind       string `toml:"api_bind"`
	APIToken      string `toml:"api_token"`
}

// LLM contains connection settings for the script generation model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TTS contains ElevenLabs text-to-speech settings.
type TTS struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	VoiceID        string `toml:"voice_id"`
	ModelID        string `toml:"model_id"`
	OutputFormat   string `toml:"output_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Whisper contains transcription settings used to recover word timings from
// synthesized narration.
type Whisper struct {
	Enabled        bool   `toml:"enabled"`
	Model          string `toml:"model"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Stock contains Pexels stock footage settings.
type Stock struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ClipsPerItem   int    `toml:"clips_per_item"`
	Orientation    string `toml:"orientation"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Publish contains YouTube upload settings.
type Publish struct {
	Enabled        bool   `toml:"enabled"`
	TokenPath      string `toml:"token_path"`
	Privacy        string `toml:"privacy"`
	CategoryID     string `toml:"category_id"`
	Tags           string `toml:"tags"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Captions contains alignment and segmentation settings.
type Captions struct {
	MaxCharsPerLine int     `toml:"max_chars_per_line"`
	MaxCueDuration  float64 `toml:"max_cue_duration"`
	MaxLinesPerCue  int     `toml:"max_lines_per_cue"`
	Lookahead       int     `toml:"lookahead"`
	SmoothingGap    float64 `toml:"smoothing_gap"`
	Karaoke         bool    `toml:"karaoke"`
	// TimingSource selects where word timings come from: "auto" prefers the
	// transcriber and falls back to TTS character boundaries, "whisper" and
	// "tts" force one source.
	TimingSource string `toml:"timing_source"`
	BurnIn       bool   `toml:"burn_in"`
}

// Workflow contains daemon timing, intervals, and concurrency.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	MaxConcurrentItems int `toml:"max_concurrent_items"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Scripting      bool   `toml:"scripting"`
	Narration      bool   `toml:"narration"`
	Captioning     bool   `toml:"captioning"`
	Assembly       bool   `toml:"assembly"`
	Publishing     bool   `toml:"publishing"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: working directories and API bind address
//   - LLM: script generation model connection
//   - TTS: ElevenLabs narration synthesis
//   - Whisper: narration transcription for word timings
//   - Stock: Pexels footage retrieval
//   - Publish: YouTube upload
//   - Captions: alignment and cue segmentation tuning
//   - Workflow: daemon polling intervals, heartbeats, concurrency
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	TTS           TTS           `toml:"tts"`
	Whisper       Whisper       `toml:"whisper"`
	Stock         Stock         `toml:"stock"`
	Publish       Publish       `toml:"publish"`
	Captions      Captions      `toml:"captions"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. A .env file in the working
// directory is loaded first so secrets can stay out of the TOML file.
func Load(path string) (*Config, string, bool, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// OutputDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.AssetCacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for video assembly.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
