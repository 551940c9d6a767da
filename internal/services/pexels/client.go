package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.pexels.com"
	defaultHTTPTimeout = 60 * time.Second

	// Target frame geometry for vertical output.
	targetWidth  = 1080
	targetHeight = 1920
)

// Config captures the runtime settings required to talk to Pexels.
type Config struct {
	APIKey         string
	BaseURL        string
	Orientation    string
	TimeoutSeconds int
}

// Client wraps the Pexels video search API.
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

// NewClient constructs a Pexels client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Orientation:    strings.TrimSpace(cfg.Orientation),
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
	if client.cfg.Orientation == "" {
		client.cfg.Orientation = "portrait"
	}
	return client
}

// Clip describes one downloadable stock video.
type Clip struct {
	ID       int64
	Duration float64
	Width    int
	Height   int
	URL      string
}

type videoFile struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Link    string `json:"link"`
}

type searchResponse struct {
	Videos []struct {
		ID         int64       `json:"id"`
		Duration   float64     `json:"duration"`
		VideoFiles []videoFile `json:"video_files"`
	} `json:"videos"`
}

// Search returns up to limit clips matching the query, preferring renditions
// closest to the 1080x1920 vertical target.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Clip, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("pexels search: query required")
	}
	if c.cfg.APIKey == "" {
		return nil, errors.New("pexels search: api key required")
	}
	if limit <= 0 {
		limit = 1
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "videos", "search")
	if err != nil {
		return nil, fmt.Errorf("pexels search: build url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("orientation", c.cfg.Orientation)
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("size", "medium")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pexels search: new request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("pexels search: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("pexels search: decode response: %w", err)
	}

	clips := make([]Clip, 0, len(payload.Videos))
	for _, video := range payload.Videos {
		best := bestRendition(video.VideoFiles)
		if best < 0 {
			continue
		}
		file := video.VideoFiles[best]
		clips = append(clips, Clip{
			ID:       video.ID,
			Duration: video.Duration,
			Width:    file.Width,
			Height:   file.Height,
			URL:      file.Link,
		})
		if len(clips) >= limit {
			break
		}
	}
	return clips, nil
}

// bestRendition picks the video file closest to the vertical target without
// going below it when a large-enough rendition exists.
func bestRendition(files []videoFile) int {
	best := -1
	bestScore := 0
	for i, file := range files {
		if file.Link == "" || file.Width <= 0 || file.Height <= 0 {
			continue
		}
		score := renditionScore(file.Width, file.Height)
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

func renditionScore(width, height int) int {
	score := 0
	if height >= targetHeight && width >= targetWidth {
		// Large enough to crop without upscaling. Prefer the smallest such file.
		score = 2_000_000 - width*height/1000
	} else {
		score = width * height / 1000
	}
	return score
}

// Download fetches a clip into cacheDir and returns the local path. A file
// already present in the cache is reused without a network round trip.
func (c *Client) Download(ctx context.Context, clip Clip, cacheDir string) (string, error) {
	if clip.URL == "" {
		return "", errors.New("pexels download: clip url required")
	}
	if cacheDir == "" {
		return "", errors.New("pexels download: cache dir required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("pexels download: ensure cache dir: %w", err)
	}

	dest := filepath.Join(cacheDir, fmt.Sprintf("pexels_%d.mp4", clip.ID))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clip.URL, nil)
	if err != nil {
		return "", fmt.Errorf("pexels download: new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pexels download: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("pexels download: http %d", resp.StatusCode)
	}

	tmp := dest + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("pexels download: create file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("pexels download: write file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("pexels download: close file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("pexels download: finalize file: %w", err)
	}
	return dest, nil
}

// HealthCheck verifies the API key with a minimal search request.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.Search(ctx, "nature", 1)
	return err
}
