// Package publishing uploads assembled videos to YouTube and records the
// resulting watch URL on the item.
package publishing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/youtube"
	"reelsmith/internal/stage"
)

// Uploader is the slice of the YouTube client this stage depends on.
type Uploader interface {
	Upload(ctx context.Context, videoPath string, meta youtube.Metadata) (string, error)
	HealthCheck(ctx context.Context) error
}

// Publisher pushes finished videos to the configured destination.
type Publisher struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	uploader Uploader
	notifier notifications.Service
	titler   cases.Caser
}

// NewPublisher constructs the publishing stage handler using default dependencies.
func NewPublisher(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Publisher {
	var uploader Uploader
	if cfg.Publish.Enabled {
		uploader = youtube.NewClient(youtube.Config{
			TokenPath:      cfg.Publish.TokenPath,
			Privacy:        cfg.Publish.Privacy,
			CategoryID:     cfg.Publish.CategoryID,
			Tags:           splitTags(cfg.Publish.Tags),
			TimeoutSeconds: cfg.Publish.TimeoutSeconds,
		})
	}
	return NewPublisherWithDependencies(cfg, store, logger, uploader, notifications.NewService(cfg))
}

// NewPublisherWithDependencies allows injecting collaborators (used in tests).
func NewPublisherWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, uploader Uploader, notifier notifications.Service) *Publisher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "publishing"))
	}
	return &Publisher{
		store:    store,
		cfg:      cfg,
		logger:   stageLogger,
		uploader: uploader,
		notifier: notifier,
		titler:   cases.Title(language.English, cases.NoLower),
	}
}

func (p *Publisher) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Publishing"
	}
	item.ProgressMessage = "Preparing upload"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting publish preparation", logging.String("video_file", strings.TrimSpace(item.VideoFile)))
	return nil
}

func (p *Publisher) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	if strings.TrimSpace(item.VideoFile) == "" {
		return services.Wrap(services.ErrValidation, "publishing", "validate inputs", "No assembled video present; run assembly before publishing", nil)
	}
	if strings.TrimSpace(item.Title) == "" {
		return services.Wrap(services.ErrValidation, "publishing", "validate inputs", "Item has no title; scripting must set one before publishing", nil)
	}

	if !p.cfg.Publish.Enabled || p.uploader == nil {
		item.SetProgressComplete("Publishing", "Publishing disabled; video kept locally")
		logger.Info("publishing disabled, keeping video locally", logging.String("video_file", item.VideoFile))
		return nil
	}

	meta := queue.MetadataFromJSON(item.MetadataJSON)
	title := p.titler.String(strings.TrimSpace(item.Title))
	description := buildDescription(meta)
	tags := meta.Hashtags
	if len(tags) == 0 {
		tags = splitTags(p.cfg.Publish.Tags)
	}

	p.updateProgress(ctx, item, "Uploading video", 30)
	logger.Info(
		"uploading video",
		logging.String("title", title),
		logging.String("privacy", p.cfg.Publish.Privacy),
	)

	url, err := p.uploader.Upload(ctx, item.VideoFile, youtube.Metadata{
		Title:       title,
		Description: description,
		Tags:        tags,
	})
	if err != nil {
		return services.Wrap(services.ExternalMarker(err), "publishing", "upload video", "Video upload failed", err)
	}

	item.FinalURL = url
	item.Title = title
	item.SetProgressComplete("Publishing", fmt.Sprintf("Published: %s", url))
	logger.Info("video published", logging.String("url", url))

	if p.notifier != nil {
		if err := p.notifier.NotifyPublished(ctx, title, url); err != nil {
			logger.Warn("publish notification failed", logging.Error(err))
		}
	}
	return nil
}

// buildDescription composes the upload description from the hook and
// hashtags collected during scripting.
func buildDescription(meta queue.ItemMetadata) string {
	var parts []string
	if hook := strings.TrimSpace(meta.Hook); hook != "" {
		parts = append(parts, hook)
	}
	if desc := strings.TrimSpace(meta.Description); desc != "" {
		parts = append(parts, desc)
	}
	if len(meta.Hashtags) > 0 {
		tags := make([]string, 0, len(meta.Hashtags))
		for _, tag := range meta.Hashtags {
			tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
			if tag != "" {
				tags = append(tags, "#"+tag)
			}
		}
		if len(tags) > 0 {
			parts = append(parts, strings.Join(tags, " "))
		}
	}
	return strings.Join(parts, "\n\n")
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// HealthCheck verifies publish prerequisites. A disabled publisher is
// healthy; the stage simply completes items locally.
func (p *Publisher) HealthCheck(ctx context.Context) stage.Health {
	const name = "publishing"
	if p.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if !p.cfg.Publish.Enabled {
		return stage.Healthy(name)
	}
	if p.uploader == nil {
		return stage.Unhealthy(name, "uploader unavailable")
	}
	if err := p.uploader.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (p *Publisher) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, p.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := p.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist publishing progress", logging.Error(err))
		return
	}
	*item = copy
}
