package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://www.googleapis.com"
	defaultHTTPTimeout = 10 * time.Minute
)

// Config captures the runtime settings required to publish to YouTube.
type Config struct {
	TokenPath      string
	BaseURL        string
	Privacy        string
	CategoryID     string
	Tags           []string
	TimeoutSeconds int
}

// Client wraps the YouTube Data API resumable upload flow.
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

// NewClient constructs a YouTube client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.Privacy == "" {
		client.cfg.Privacy = "unlisted"
	}
	return client
}

type tokenFile struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) loadAccessToken() (string, error) {
	path := strings.TrimSpace(c.cfg.TokenPath)
	if path == "" {
		return "", errors.New("youtube: token path not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("youtube: read token file: %w", err)
	}
	var token tokenFile
	if err := json.Unmarshal(data, &token); err != nil {
		return "", fmt.Errorf("youtube: parse token file: %w", err)
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return "", errors.New("youtube: token file missing access_token")
	}
	return token.AccessToken, nil
}

// Metadata describes one upload.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

type uploadSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  string   `json:"categoryId,omitempty"`
}

type uploadStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type uploadRequest struct {
	Snippet uploadSnippet `json:"snippet"`
	Status  uploadStatus  `json:"status"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

// Upload publishes the video file and returns its watch URL. The upload is
// resumable at the protocol level; a failed session is simply restarted.
func (c *Client) Upload(ctx context.Context, videoPath string, meta Metadata) (string, error) {
	meta.Title = strings.TrimSpace(meta.Title)
	if videoPath == "" {
		return "", errors.New("youtube upload: video path required")
	}
	if meta.Title == "" {
		return "", errors.New("youtube upload: title required")
	}
	accessToken, err := c.loadAccessToken()
	if err != nil {
		return "", err
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return "", fmt.Errorf("youtube upload: stat video: %w", err)
	}

	tags := meta.Tags
	if len(tags) == 0 {
		tags = c.cfg.Tags
	}

	sessionURL, err := c.startSession(ctx, accessToken, info.Size(), uploadRequest{
		Snippet: uploadSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			Tags:        tags,
			CategoryID:  c.cfg.CategoryID,
		},
		Status: uploadStatus{
			PrivacyStatus:           c.cfg.Privacy,
			SelfDeclaredMadeForKids: false,
		},
	})
	if err != nil {
		return "", err
	}

	videoID, err := c.sendBytes(ctx, accessToken, sessionURL, videoPath, info.Size())
	if err != nil {
		return "", err
	}
	return "https://youtube.com/shorts/" + videoID, nil
}

func (c *Client) startSession(ctx context.Context, accessToken string, size int64, payload uploadRequest) (string, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "upload", "youtube", "v3", "videos")
	if err != nil {
		return "", fmt.Errorf("youtube upload: build url: %w", err)
	}
	endpoint += "?uploadType=resumable&part=snippet,status"

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("youtube upload: encode metadata: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("youtube upload: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Type", "video/mp4")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube upload: start session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("youtube upload: start session: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return "", errors.New("youtube upload: session response missing Location header")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return location, nil
}

func (c *Client) sendBytes(ctx context.Context, accessToken, sessionURL, videoPath string, size int64) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("youtube upload: open video: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, sessionURL, file)
	if err != nil {
		return "", fmt.Errorf("youtube upload: new request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "video/mp4")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("youtube upload: send bytes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("youtube upload: send bytes: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("youtube upload: decode response: %w", err)
	}
	if strings.TrimSpace(payload.ID) == "" {
		return "", errors.New("youtube upload: response missing video id")
	}
	return payload.ID, nil
}

// HealthCheck verifies the token file is present and well-formed. It does
// not call the API; quota is too precious to spend on liveness probes.
func (c *Client) HealthCheck(_ context.Context) error {
	_, err := c.loadAccessToken()
	return err
}
