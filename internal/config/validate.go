package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateTTS(); err != nil {
		return err
	}
	if err := c.validateStock(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelsmith/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'reelsmith config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTTS() error {
	if c.TTS.APIKey == "" {
		return errors.New("tts.api_key is required. Set ELEVENLABS_API_KEY env var or edit the config file")
	}
	if strings.TrimSpace(c.TTS.VoiceID) == "" {
		return errors.New("tts.voice_id must be set")
	}
	return nil
}

func (c *Config) validateStock() error {
	if !c.Stock.Enabled {
		return nil
	}
	if c.Stock.APIKey == "" {
		return errors.New("stock.api_key must be set when stock.enabled is true (or set PEXELS_API_KEY)")
	}
	switch c.Stock.Orientation {
	case "portrait", "landscape", "square":
	default:
		return fmt.Errorf("stock.orientation must be portrait, landscape, or square, got %q", c.Stock.Orientation)
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled {
		return nil
	}
	switch c.Publish.Privacy {
	case "public", "unlisted", "private":
	default:
		return fmt.Errorf("publish.privacy must be public, unlisted, or private, got %q", c.Publish.Privacy)
	}
	if strings.TrimSpace(c.Publish.TokenPath) == "" {
		return errors.New("publish.token_path must be set when publish.enabled is true")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	if c.Captions.MaxLinesPerCue != 1 && c.Captions.MaxLinesPerCue != 2 {
		return errors.New("captions.max_lines_per_cue must be 1 or 2")
	}
	switch c.Captions.TimingSource {
	case "auto", "whisper", "tts":
	default:
		return fmt.Errorf("captions.timing_source must be auto, whisper, or tts, got %q", c.Captions.TimingSource)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if c.Workflow.MaxConcurrentItems <= 0 {
		return errors.New("workflow.max_concurrent_items must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if strings.TrimSpace(c.Notifications.NtfyTopic) != "" && c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
