// Package scripting turns a queued topic into a narration script via the
// configured language model.
package scripting

import (
	"context"
	"log/slog"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/stage"
)

// ScriptGenerator is the slice of the LLM client this stage depends on.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, topic string) (llm.Script, error)
	HealthCheck(ctx context.Context) error
}

// Scripter generates the narration script for a pending item.
type Scripter struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	generator ScriptGenerator
	notifier  notifications.Service
}

// NewScripter constructs the scripting stage handler using default dependencies.
func NewScripter(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Scripter {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewScripterWithDependencies(cfg, store, logger, client, notifications.NewService(cfg))
}

// NewScripterWithDependencies allows injecting collaborators (used in tests).
func NewScripterWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, generator ScriptGenerator, notifier notifications.Service) *Scripter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "scripting"))
	}
	return &Scripter{store: store, cfg: cfg, logger: stageLogger, generator: generator, notifier: notifier}
}

func (s *Scripter) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Scripting"
	}
	item.ProgressMessage = "Preparing script generation"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting script preparation", logging.String("topic", strings.TrimSpace(item.Topic)))
	return nil
}

func (s *Scripter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	topic := strings.TrimSpace(item.Topic)
	if topic == "" {
		return services.Wrap(
			services.ErrValidation,
			"scripting",
			"validate inputs",
			"Item has no topic; queue items need a topic before scripting can run",
			nil,
		)
	}
	if s.generator == nil {
		return services.Wrap(services.ErrConfiguration, "scripting", "resolve client", "LLM client unavailable", nil)
	}

	s.updateProgress(ctx, item, "Generating script", 20)
	logger.Info("requesting script from model", logging.String("model", s.cfg.LLM.Model))

	script, err := s.generator.GenerateScript(ctx, topic)
	if err != nil {
		return services.Wrap(services.ExternalMarker(err), "scripting", "generate script", "Script generation failed", err)
	}

	meta := queue.MetadataFromJSON(item.MetadataJSON)
	meta.Hook = script.Hook
	meta.Keywords = script.Keywords
	meta.Hashtags = script.Hashtags
	encoded, err := meta.ToJSON()
	if err != nil {
		return services.Wrap(services.ErrTransient, "scripting", "encode metadata", "Failed to encode script metadata", err)
	}

	item.Title = script.Title
	item.ScriptText = script.FullText()
	item.MetadataJSON = encoded
	item.SetProgressComplete("Scripting", "Script ready")
	logger.Info(
		"script generated",
		logging.String("title", script.Title),
		logging.Int("words", len(strings.Fields(item.ScriptText))),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyScriptReady(ctx, script.Title); err != nil {
			logger.Warn("script notification failed", logging.Error(err))
		}
	}
	return nil
}

// HealthCheck verifies the LLM configuration and reachability.
func (s *Scripter) HealthCheck(ctx context.Context) stage.Health {
	const name = "scripting"
	if s.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(s.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(name, "llm api key not configured")
	}
	if s.generator == nil {
		return stage.Unhealthy(name, "llm client unavailable")
	}
	if err := s.generator.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

func (s *Scripter) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, s.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := s.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist scripting progress", logging.Error(err))
		return
	}
	*item = copy
}
