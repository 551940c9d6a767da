package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeTTS()
	c.normalizeWhisper()
	c.normalizeStock()
	if err := c.normalizePublish(); err != nil {
		return err
	}
	c.normalizeCaptions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.AssetCacheDir) == "" {
		c.Paths.AssetCacheDir = defaultAssetCacheDir
	}
	if c.Paths.AssetCacheDir, err = expandPath(c.Paths.AssetCacheDir); err != nil {
		return fmt.Errorf("paths.asset_cache_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("REELSMITH_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeTTS() {
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.TTS.APIKey = strings.TrimSpace(value)
		}
	}
	c.TTS.VoiceID = strings.TrimSpace(c.TTS.VoiceID)
	if c.TTS.VoiceID == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_VOICE_ID"); ok {
			c.TTS.VoiceID = strings.TrimSpace(value)
		}
	}
	c.TTS.BaseURL = strings.TrimSpace(c.TTS.BaseURL)
	if c.TTS.BaseURL == "" {
		c.TTS.BaseURL = defaultTTSBaseURL
	}
	c.TTS.ModelID = strings.TrimSpace(c.TTS.ModelID)
	if c.TTS.ModelID == "" {
		c.TTS.ModelID = defaultTTSModelID
	}
	c.TTS.OutputFormat = strings.TrimSpace(c.TTS.OutputFormat)
	if c.TTS.OutputFormat == "" {
		c.TTS.OutputFormat = defaultTTSOutputFormat
	}
	if c.TTS.TimeoutSeconds <= 0 {
		c.TTS.TimeoutSeconds = defaultTTSTimeoutSeconds
	}
}

func (c *Config) normalizeWhisper() {
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	if c.Whisper.Model == "" {
		c.Whisper.Model = defaultWhisperModel
	}
	if c.Whisper.TimeoutSeconds <= 0 {
		c.Whisper.TimeoutSeconds = defaultWhisperTimeoutSeconds
	}
}

func (c *Config) normalizeStock() {
	c.Stock.APIKey = strings.TrimSpace(c.Stock.APIKey)
	if c.Stock.APIKey == "" {
		if value, ok := os.LookupEnv("PEXELS_API_KEY"); ok {
			c.Stock.APIKey = strings.TrimSpace(value)
		}
	}
	c.Stock.BaseURL = strings.TrimSpace(c.Stock.BaseURL)
	if c.Stock.BaseURL == "" {
		c.Stock.BaseURL = defaultStockBaseURL
	}
	if c.Stock.ClipsPerItem <= 0 {
		c.Stock.ClipsPerItem = defaultStockClipsPerItem
	}
	c.Stock.Orientation = strings.ToLower(strings.TrimSpace(c.Stock.Orientation))
	if c.Stock.Orientation == "" {
		c.Stock.Orientation = defaultStockOrientation
	}
	if c.Stock.TimeoutSeconds <= 0 {
		c.Stock.TimeoutSeconds = defaultStockTimeoutSeconds
	}
}

func (c *Config) normalizePublish() error {
	var err error
	if strings.TrimSpace(c.Publish.TokenPath) == "" {
		c.Publish.TokenPath = defaultPublishTokenPath
	}
	if c.Publish.TokenPath, err = expandPath(c.Publish.TokenPath); err != nil {
		return fmt.Errorf("publish.token_path: %w", err)
	}
	c.Publish.Privacy = strings.ToLower(strings.TrimSpace(c.Publish.Privacy))
	if c.Publish.Privacy == "" {
		c.Publish.Privacy = defaultPublishPrivacy
	}
	c.Publish.CategoryID = strings.TrimSpace(c.Publish.CategoryID)
	if c.Publish.CategoryID == "" {
		c.Publish.CategoryID = defaultPublishCategoryID
	}
	if c.Publish.TimeoutSeconds <= 0 {
		c.Publish.TimeoutSeconds = defaultPublishTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeCaptions() {
	if c.Captions.MaxCharsPerLine <= 0 {
		c.Captions.MaxCharsPerLine = defaultCaptionMaxCharsPerLine
	}
	if c.Captions.MaxCueDuration <= 0 {
		c.Captions.MaxCueDuration = defaultCaptionMaxCueDuration
	}
	if c.Captions.MaxLinesPerCue <= 0 {
		c.Captions.MaxLinesPerCue = defaultCaptionMaxLinesPerCue
	}
	if c.Captions.Lookahead < 0 {
		c.Captions.Lookahead = defaultCaptionLookahead
	}
	if c.Captions.SmoothingGap < 0 {
		c.Captions.SmoothingGap = defaultCaptionSmoothingGap
	}
	c.Captions.TimingSource = strings.ToLower(strings.TrimSpace(c.Captions.TimingSource))
	if c.Captions.TimingSource == "" {
		c.Captions.TimingSource = defaultCaptionTimingSource
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
