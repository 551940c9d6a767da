package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyItemQueued(ctx context.Context, topic string) error
	NotifyScriptReady(ctx context.Context, title string) error
	NotifyNarrationReady(ctx context.Context, title string) error
	NotifyCaptionsReady(ctx context.Context, title string, cueCount int) error
	NotifyVideoAssembled(ctx context.Context, title, videoFile string) error
	NotifyPublished(ctx context.Context, title, url string) error
	NotifyReview(ctx context.Context, title, reason string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  config.Notifications
}

func (n *ntfyService) NotifyItemQueued(ctx context.Context, topic string) error {
	data := payload{
		title:   "Reelsmith - Queued",
		message: fmt.Sprintf("New topic queued: %s", strings.TrimSpace(topic)),
		tags:    []string{"reelsmith", "queue", "added"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScriptReady(ctx context.Context, title string) error {
	if !n.enabled.Scripting {
		return nil
	}
	data := payload{
		title:   "Reelsmith - Script Ready",
		message: fmt.Sprintf("Script generated: %s", strings.TrimSpace(title)),
		tags:    []string{"reelsmith", "script", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyNarrationReady(ctx context.Context, title string) error {
	if !n.enabled.Narration {
		return nil
	}
	data := payload{
		title:   "Reelsmith - Narration Ready",
		message: fmt.Sprintf("Narration synthesized: %s", strings.TrimSpace(title)),
		tags:    []string{"reelsmith", "narration", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCaptionsReady(ctx context.Context, title string, cueCount int) error {
	if !n.enabled.Captioning {
		return nil
	}
	data := payload{
		title:   "Reelsmith - Captions Ready",
		message: fmt.Sprintf("Captions generated: %s (%d cues)", strings.TrimSpace(title), cueCount),
		tags:    []string{"reelsmith", "captions", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoAssembled(ctx context.Context, title, videoFile string) error {
	if !n.enabled.Assembly {
		return nil
	}
	message := fmt.Sprintf("Video assembled: %s", strings.TrimSpace(title))
	if videoFile = strings.TrimSpace(videoFile); videoFile != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, videoFile)
	}
	data := payload{
		title:   "Reelsmith - Assembled",
		message: message,
		tags:    []string{"reelsmith", "assembly", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPublished(ctx context.Context, title, url string) error {
	if !n.enabled.Publishing {
		return nil
	}
	message := fmt.Sprintf("Published: %s", strings.TrimSpace(title))
	if url = strings.TrimSpace(url); url != "" {
		message = fmt.Sprintf("%s\n%s", message, url)
	}
	data := payload{
		title:    "Reelsmith - Published",
		message:  message,
		tags:     []string{"reelsmith", "publish", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReview(ctx context.Context, title, reason string) error {
	data := payload{
		title:   "Reelsmith - Review Needed",
		message: fmt.Sprintf("Manual review required: %s\n%s", strings.TrimSpace(title), strings.TrimSpace(reason)),
		tags:    []string{"reelsmith", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.enabled.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelsmith - Error",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyItemQueued(context.Context, string) error           { return nil }
func (noopService) NotifyScriptReady(context.Context, string) error          { return nil }
func (noopService) NotifyNarrationReady(context.Context, string) error       { return nil }
func (noopService) NotifyCaptionsReady(context.Context, string, int) error   { return nil }
func (noopService) NotifyVideoAssembled(context.Context, string, string) error {
	return nil
}
func (noopService) NotifyPublished(context.Context, string, string) error { return nil }
func (noopService) NotifyReview(context.Context, string, string) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
