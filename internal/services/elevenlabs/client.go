package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"reelsmith/internal/captions"
)

const (
	defaultBaseURL      = "https://api.elevenlabs.io"
	defaultModelID      = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	defaultHTTPTimeout  = 120 * time.Second
)

// Config captures the runtime settings required to talk to ElevenLabs.
type Config struct {
	APIKey         string
	BaseURL        string
	VoiceID        string
	ModelID        string
	OutputFormat   string
	TimeoutSeconds int
}

// Client wraps the ElevenLabs text-to-speech API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs an ElevenLabs client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			VoiceID:        strings.TrimSpace(cfg.VoiceID),
			ModelID:        strings.TrimSpace(cfg.ModelID),
			OutputFormat:   strings.TrimSpace(cfg.OutputFormat),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.ModelID == "" {
		client.cfg.ModelID = defaultModelID
	}
	if client.cfg.OutputFormat == "" {
		client.cfg.OutputFormat = defaultOutputFormat
	}
	return client
}

// Result carries the products of one synthesis call.
type Result struct {
	AudioPath    string
	Duration     float64
	Observations []captions.TimingObservation
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

type synthesisResponse struct {
	AudioBase64 string    `json:"audio_base64"`
	Alignment   alignment `json:"alignment"`
}

type alignment struct {
	Characters          []string  `json:"characters"`
	CharacterStartTimes []float64 `json:"character_start_times_seconds"`
	CharacterEndTimes   []float64 `json:"character_end_times_seconds"`
}

// Synthesize converts text to speech, writes the audio to destPath, and
// returns per-word timing observations derived from the character alignment.
func (c *Client) Synthesize(ctx context.Context, text, destPath string) (Result, error) {
	var result Result
	text = strings.TrimSpace(text)
	if text == "" {
		return result, errors.New("tts synthesize: text required")
	}
	if destPath == "" {
		return result, errors.New("tts synthesize: destination path required")
	}
	if c.cfg.APIKey == "" {
		return result, errors.New("tts synthesize: api key required")
	}
	if c.cfg.VoiceID == "" {
		return result, errors.New("tts synthesize: voice id required")
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", c.cfg.VoiceID, "with-timestamps")
	if err != nil {
		return result, fmt.Errorf("tts synthesize: build url: %w", err)
	}
	endpoint += "?output_format=" + url.QueryEscape(c.cfg.OutputFormat)

	encoded, err := json.Marshal(synthesisRequest{Text: text, ModelID: c.cfg.ModelID})
	if err != nil {
		return result, fmt.Errorf("tts synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return result, fmt.Errorf("tts synthesize: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, fmt.Errorf("tts synthesize: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return result, fmt.Errorf("tts synthesize: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload synthesisResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return result, fmt.Errorf("tts synthesize: decode response: %w", err)
	}
	if payload.AudioBase64 == "" {
		return result, errors.New("tts synthesize: response contained no audio")
	}

	audio, err := base64.StdEncoding.DecodeString(payload.AudioBase64)
	if err != nil {
		return result, fmt.Errorf("tts synthesize: decode audio: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return result, fmt.Errorf("tts synthesize: ensure output dir: %w", err)
	}
	if err := os.WriteFile(destPath, audio, 0o644); err != nil {
		return result, fmt.Errorf("tts synthesize: write audio: %w", err)
	}

	observations, duration, err := wordsFromAlignment(payload.Alignment)
	if err != nil {
		return result, fmt.Errorf("tts synthesize: %w", err)
	}

	result.AudioPath = destPath
	result.Duration = duration
	result.Observations = observations
	return result, nil
}

// HealthCheck verifies the API key by fetching the account profile.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("tts health: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "user")
	if err != nil {
		return fmt.Errorf("tts health: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("tts health: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tts health: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("tts health: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// wordsFromAlignment folds the provider's per-character timings into
// word-level observations. Whitespace characters terminate the current word;
// punctuation stays attached to the word carrying it.
func wordsFromAlignment(a alignment) ([]captions.TimingObservation, float64, error) {
	if len(a.Characters) != len(a.CharacterStartTimes) || len(a.Characters) != len(a.CharacterEndTimes) {
		return nil, 0, fmt.Errorf(
			"alignment arrays disagree: %d characters, %d starts, %d ends",
			len(a.Characters), len(a.CharacterStartTimes), len(a.CharacterEndTimes),
		)
	}

	var (
		observations []captions.TimingObservation
		builder      strings.Builder
		wordStart    float64
		wordEnd      float64
		duration     float64
	)

	flush := func() {
		if builder.Len() == 0 {
			return
		}
		observations = append(observations, captions.TimingObservation{
			Text:       builder.String(),
			Start:      wordStart,
			End:        wordEnd,
			Confidence: 1.0,
			Source:     captions.ObservationProviderBoundary,
		})
		builder.Reset()
	}

	for i, ch := range a.Characters {
		if a.CharacterEndTimes[i] > duration {
			duration = a.CharacterEndTimes[i]
		}
		if isWhitespaceChar(ch) {
			flush()
			continue
		}
		if builder.Len() == 0 {
			wordStart = a.CharacterStartTimes[i]
		}
		wordEnd = a.CharacterEndTimes[i]
		builder.WriteString(ch)
	}
	flush()

	return observations, duration, nil
}

func isWhitespaceChar(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return s != ""
}
