// Package assembly sources stock footage for an item and composites it
// with the narration track into the final vertical video.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/services/pexels"
	"reelsmith/internal/stage"
	"reelsmith/internal/textutil"
)

// ClipSource is the slice of the stock footage client this stage depends on.
type ClipSource interface {
	Search(ctx context.Context, query string, limit int) ([]pexels.Clip, error)
	Download(ctx context.Context, clip pexels.Clip, cacheDir string) (string, error)
}

// Compositor is the slice of the ffmpeg service this stage depends on.
type Compositor interface {
	Assemble(ctx context.Context, req ffmpeg.AssembleRequest) error
	ProbeDuration(ctx context.Context, path string) (float64, error)
	HealthCheck(ctx context.Context) error
}

// Assembler builds the final video for a captioned item.
type Assembler struct {
	store      *queue.Store
	cfg        *config.Config
	logger     *slog.Logger
	clips      ClipSource
	compositor Compositor
	notifier   notifications.Service
}

// NewAssembler constructs the assembly stage handler using default dependencies.
func NewAssembler(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Assembler {
	var clips ClipSource
	if cfg.Stock.Enabled {
		clips = pexels.NewClient(pexels.Config{
			APIKey:         cfg.Stock.APIKey,
			BaseURL:        cfg.Stock.BaseURL,
			Orientation:    cfg.Stock.Orientation,
			TimeoutSeconds: cfg.Stock.TimeoutSeconds,
		})
	}
	compositor := ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	return NewAssemblerWithDependencies(cfg, store, logger, clips, compositor, notifications.NewService(cfg))
}

// NewAssemblerWithDependencies allows injecting collaborators (used in tests).
func NewAssemblerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, clips ClipSource, compositor Compositor, notifier notifications.Service) *Assembler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "assembly"))
	}
	return &Assembler{
		store:      store,
		cfg:        cfg,
		logger:     stageLogger,
		clips:      clips,
		compositor: compositor,
		notifier:   notifier,
	}
}

func (a *Assembler) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Assembling"
	}
	item.ProgressMessage = "Preparing video assembly"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting assembly preparation", logging.String("title", strings.TrimSpace(item.Title)))
	return nil
}

func (a *Assembler) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, a.logger)
	if strings.TrimSpace(item.AudioFile) == "" {
		return services.Wrap(services.ErrValidation, "assembling", "validate inputs", "No narration audio present; run narration before assembly", nil)
	}
	if a.compositor == nil {
		return services.Wrap(services.ErrConfiguration, "assembling", "resolve compositor", "ffmpeg service unavailable", nil)
	}
	if !a.cfg.Stock.Enabled || a.clips == nil {
		return services.Wrap(
			services.ErrConfiguration,
			"assembling",
			"resolve clip source",
			"Stock footage sourcing is disabled; enable [stock] in the config to assemble videos",
			nil,
		)
	}

	meta := queue.MetadataFromJSON(item.MetadataJSON)
	duration := meta.Duration
	if duration <= 0 {
		a.updateProgress(ctx, item, "Probing narration duration", 5)
		var err error
		duration, err = a.compositor.ProbeDuration(ctx, item.AudioFile)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "assembling", "probe duration", "Failed to probe narration duration", err)
		}
	}

	a.updateProgress(ctx, item, "Sourcing stock footage", 15)
	clipPaths, err := a.sourceClips(ctx, item, meta)
	if err != nil {
		return err
	}
	logger.Info("stock footage sourced", logging.Int("clips", len(clipPaths)))

	a.updateProgress(ctx, item, "Compositing video", 50)
	outputPath := filepath.Join(a.cfg.Paths.OutputDir, fmt.Sprintf("%s-%d.mp4", textutil.Slugify(item.Title, "video"), item.ID))
	req := ffmpeg.AssembleRequest{
		ClipPaths:  clipPaths,
		AudioPath:  item.AudioFile,
		Duration:   duration,
		OutputPath: outputPath,
	}
	if a.cfg.Captions.BurnIn && strings.TrimSpace(item.SubtitleFile) != "" {
		req.SubtitlePath = item.SubtitleFile
	}
	if err := a.compositor.Assemble(ctx, req); err != nil {
		return services.Wrap(services.ErrExternalTool, "assembling", "composite video", "Video composition failed", err)
	}

	item.VideoFile = outputPath
	item.SetProgressComplete("Assembling", fmt.Sprintf("Video assembled: %s", filepath.Base(outputPath)))
	logger.Info(
		"video assembled",
		logging.String("video_file", outputPath),
		logging.Float64("duration_seconds", duration),
		logging.Bool("subtitles_burned", req.SubtitlePath != ""),
	)

	if a.notifier != nil {
		if err := a.notifier.NotifyVideoAssembled(ctx, item.Title, filepath.Base(outputPath)); err != nil {
			logger.Warn("assembly notification failed", logging.Error(err))
		}
	}
	return nil
}

// sourceClips walks the item's keywords (falling back to the raw topic)
// until enough distinct clips are cached locally.
func (a *Assembler) sourceClips(ctx context.Context, item *queue.Item, meta queue.ItemMetadata) ([]string, error) {
	logger := logging.WithContext(ctx, a.logger)
	wanted := a.cfg.Stock.ClipsPerItem
	if wanted <= 0 {
		wanted = 1
	}

	queries := make([]string, 0, len(meta.Keywords)+1)
	for _, kw := range meta.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			queries = append(queries, kw)
		}
	}
	if len(queries) == 0 {
		queries = append(queries, strings.TrimSpace(item.Topic))
	}

	seen := make(map[int64]struct{})
	var paths []string
	for _, query := range queries {
		if len(paths) >= wanted {
			break
		}
		// Always ask for the full count: results already downloaded under an
		// earlier keyword are deduplicated below and must not eat into the
		// remaining need.
		clips, err := a.clips.Search(ctx, query, wanted)
		if err != nil {
			logger.Warn("stock search failed", logging.String("query", query), logging.Error(err))
			continue
		}
		for _, clip := range clips {
			if len(paths) >= wanted {
				break
			}
			if _, dup := seen[clip.ID]; dup {
				continue
			}
			seen[clip.ID] = struct{}{}
			path, err := a.clips.Download(ctx, clip, a.cfg.Paths.AssetCacheDir)
			if err != nil {
				logger.Warn("stock download failed", logging.Int64("clip_id", clip.ID), logging.Error(err))
				continue
			}
			paths = append(paths, path)
		}
	}

	if len(paths) == 0 {
		return nil, services.Wrap(
			services.ErrExternalTool,
			"assembling",
			"source footage",
			"No stock footage could be sourced for any keyword",
			nil,
		)
	}
	return paths, nil
}

// HealthCheck verifies assembly prerequisites.
func (a *Assembler) HealthCheck(ctx context.Context) stage.Health {
	const name = "assembly"
	if a.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if a.compositor == nil {
		return stage.Unhealthy(name, "ffmpeg service unavailable")
	}
	if !a.cfg.Stock.Enabled || a.clips == nil {
		return stage.Unhealthy(name, "stock footage sourcing disabled")
	}
	if err := a.compositor.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (a *Assembler) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, a.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := a.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist assembly progress", logging.Error(err))
		return
	}
	*item = copy
}
