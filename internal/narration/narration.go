// Package narration synthesizes the narration track for a scripted item
// and records the provider's word timing observations for captioning.
package narration

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/elevenlabs"
	"reelsmith/internal/stage"
)

// Synthesizer is the slice of the TTS client this stage depends on.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, destPath string) (elevenlabs.Result, error)
	HealthCheck(ctx context.Context) error
}

// Narrator converts script text into narration audio plus timing data.
type Narrator struct {
	store       *queue.Store
	cfg         *config.Config
	logger      *slog.Logger
	synthesizer Synthesizer
	notifier    notifications.Service
}

// NewNarrator constructs the narration stage handler using default dependencies.
func NewNarrator(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Narrator {
	client := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:         cfg.TTS.APIKey,
		BaseURL:        cfg.TTS.BaseURL,
		VoiceID:        cfg.TTS.VoiceID,
		ModelID:        cfg.TTS.ModelID,
		OutputFormat:   cfg.TTS.OutputFormat,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
	return NewNarratorWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewNarratorWithDependencies allows injecting collaborators (used in tests).
func NewNarratorWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, synthesizer Synthesizer, notifier notifications.Service) *Narrator {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "narration"))
	}
	return &Narrator{store: store, cfg: cfg, logger: stageLogger, synthesizer: synthesizer, notifier: notifier}
}

func (n *Narrator) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Narrating"
	}
	item.ProgressMessage = "Preparing narration synthesis"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting narration preparation", logging.String("title", strings.TrimSpace(item.Title)))
	return nil
}

func (n *Narrator) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, n.logger)
	script := strings.TrimSpace(item.ScriptText)
	if script == "" {
		return services.Wrap(
			services.ErrValidation,
			"narrating",
			"validate inputs",
			"No script text present; run scripting before narration",
			nil,
		)
	}
	if n.synthesizer == nil {
		return services.Wrap(services.ErrConfiguration, "narrating", "resolve client", "TTS client unavailable", nil)
	}

	workDir := ItemWorkDir(n.cfg, item)
	audioPath := filepath.Join(workDir, "narration.mp3")

	n.updateProgress(ctx, item, "Synthesizing narration", 20)
	logger.Info(
		"synthesizing narration",
		logging.String("voice_id", n.cfg.TTS.VoiceID),
		logging.Int("script_chars", len(script)),
	)

	result, err := n.synthesizer.Synthesize(ctx, script, audioPath)
	if err != nil {
		return services.Wrap(services.ExternalMarker(err), "narrating", "synthesize audio", "Narration synthesis failed", err)
	}
	if len(result.Observations) == 0 {
		return services.Wrap(services.ErrExternalTool, "narrating", "collect timings", "Provider returned no word timings", nil)
	}

	n.updateProgress(ctx, item, "Recording word timings", 80)
	timingsPath := filepath.Join(workDir, "timings.json")
	doc := captions.TimingsDocument{Duration: result.Duration, Observations: result.Observations}
	if err := captions.SaveTimings(timingsPath, doc); err != nil {
		return services.Wrap(services.ErrTransient, "narrating", "save timings", "Failed to persist timing observations", err)
	}

	meta := queue.MetadataFromJSON(item.MetadataJSON)
	meta.Duration = result.Duration
	encoded, err := meta.ToJSON()
	if err != nil {
		return services.Wrap(services.ErrTransient, "narrating", "encode metadata", "Failed to encode narration metadata", err)
	}

	item.AudioFile = result.AudioPath
	item.TimingsFile = timingsPath
	item.MetadataJSON = encoded
	item.SetProgressComplete("Narrating", fmt.Sprintf("Narration ready (%.1fs)", result.Duration))
	logger.Info(
		"narration synthesized",
		logging.String("audio_file", result.AudioPath),
		logging.Float64("duration_seconds", result.Duration),
		logging.Int("timing_observations", len(result.Observations)),
	)

	if n.notifier != nil {
		if err := n.notifier.NotifyNarrationReady(ctx, item.Title); err != nil {
			logger.Warn("narration notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the TTS configuration and reachability.
func (n *Narrator) HealthCheck(ctx context.Context) stage.Health {
	const name = "narration"
	if n.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(n.cfg.TTS.APIKey) == "" {
		return stage.Unhealthy(name, "tts api key not configured")
	}
	if strings.TrimSpace(n.cfg.TTS.VoiceID) == "" {
		return stage.Unhealthy(name, "tts voice id not configured")
	}
	if n.synthesizer == nil {
		return stage.Unhealthy(name, "tts client unavailable")
	}
	return stage.Healthy(name)
}

func (n *Narrator) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, n.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := n.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist narration progress", logging.Error(err))
		return
	}
	*item = copy
}

// ItemWorkDir returns the per-item scratch directory under the work root.
func ItemWorkDir(cfg *config.Config, item *queue.Item) string {
	return filepath.Join(cfg.Paths.WorkDir, fmt.Sprintf("item-%d", item.ID))
}
