// Package captioning aligns the narration script against word timing
// observations and renders the result as an SRT file, with optional
// karaoke highlight windows for styled renderers.
package captioning

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/services/whisper"
	"reelsmith/internal/stage"
)

// Transcriber is the slice of the WhisperX service this stage depends on.
type Transcriber interface {
	ExtractAudio(ctx context.Context, source, dest string) error
	TranscribeFile(ctx context.Context, source, outputDir string) (whisper.TranscribeResult, error)
}

// DurationProber reports the length of a media file.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Captioner produces timed captions for a synthesized item.
type Captioner struct {
	store       *queue.Store
	cfg         *config.Config
	logger      *slog.Logger
	transcriber Transcriber
	prober      DurationProber
	notifier    notifications.Service
}

// NewCaptioner constructs the captioning stage handler using default dependencies.
func NewCaptioner(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Captioner {
	var transcriber Transcriber
	if cfg.Whisper.Enabled {
		transcriber = whisper.NewService(whisper.Config{
			Model:       cfg.Whisper.Model,
			CUDAEnabled: cfg.Whisper.CUDAEnabled,
		}, cfg.FFmpegBinary())
	}
	prober := ffmpeg.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	return NewCaptionerWithDependencies(cfg, store, logger, transcriber, prober, notifications.NewService(cfg))
}

// NewCaptionerWithDependencies allows injecting collaborators (used in tests).
func NewCaptionerWithDependencies(cfg *config.Config, store *queue.Store, logger *slog.Logger, transcriber Transcriber, prober DurationProber, notifier notifications.Service) *Captioner {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String("component", "captioning"))
	}
	return &Captioner{
		store:       store,
		cfg:         cfg,
		logger:      stageLogger,
		transcriber: transcriber,
		prober:      prober,
		notifier:    notifier,
	}
}

func (c *Captioner) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	if item.ProgressStage == "" {
		item.ProgressStage = "Captioning"
	}
	item.ProgressMessage = "Preparing caption generation"
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	logger.Info("starting caption preparation", logging.String("audio_file", strings.TrimSpace(item.AudioFile)))
	return nil
}

func (c *Captioner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	if strings.TrimSpace(item.AudioFile) == "" {
		return services.Wrap(services.ErrValidation, "captioning", "validate inputs", "No narration audio present; run narration before captioning", nil)
	}
	if strings.TrimSpace(item.ScriptText) == "" {
		return services.Wrap(services.ErrValidation, "captioning", "validate inputs", "No script text present; run scripting before captioning", nil)
	}
	if strings.TrimSpace(item.TimingsFile) == "" {
		return services.Wrap(services.ErrValidation, "captioning", "validate inputs", "No timing observations present; run narration before captioning", nil)
	}

	doc, err := captions.LoadTimings(item.TimingsFile)
	if err != nil {
		return services.Wrap(services.ErrTransient, "captioning", "load timings", "Failed to load timing observations", err)
	}

	duration := doc.Duration
	if duration <= 0 {
		c.updateProgress(ctx, item, "Probing narration duration", 10)
		if c.prober == nil {
			return services.Wrap(services.ErrConfiguration, "captioning", "probe duration", "Timings carry no duration and no prober is available", nil)
		}
		duration, err = c.prober.ProbeDuration(ctx, item.AudioFile)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "captioning", "probe duration", "Failed to probe narration duration", err)
		}
	}

	observations, sourceLabel, err := c.collectObservations(ctx, item, doc)
	if err != nil {
		return err
	}
	logger.Info(
		"timing observations collected",
		logging.String("timing_source", sourceLabel),
		logging.Int("observations", len(observations)),
	)

	c.updateProgress(ctx, item, "Aligning script to timings", 50)
	opts := captions.Options{
		MaxCharsPerLine: c.cfg.Captions.MaxCharsPerLine,
		MaxCueDuration:  c.cfg.Captions.MaxCueDuration,
		MaxLinesPerCue:  c.cfg.Captions.MaxLinesPerCue,
		Lookahead:       c.cfg.Captions.Lookahead,
		SmoothingGap:    c.cfg.Captions.SmoothingGap,
		Karaoke:         c.cfg.Captions.Karaoke,
	}
	cues, report, err := captions.Run(observations, item.ScriptText, duration, opts)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "captioning", "align words", "Caption engine rejected the run", err)
	}
	if len(cues) == 0 {
		return services.Wrap(services.ErrValidation, "captioning", "segment cues", "Alignment produced no cues", nil)
	}

	c.updateProgress(ctx, item, "Writing subtitle file", 80)
	workDir := narration.ItemWorkDir(c.cfg, item)
	srtPath := filepath.Join(workDir, "captions.srt")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "captioning", "ensure work dir", "Failed to create work directory", err)
	}
	if err := os.WriteFile(srtPath, []byte(captions.Export(cues)), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "captioning", "write srt", "Failed to write subtitle file", err)
	}
	item.SubtitleFile = srtPath

	if c.cfg.Captions.Karaoke {
		highlightsPath := filepath.Join(workDir, "highlights.json")
		if err := writeHighlights(highlightsPath, cues); err != nil {
			return services.Wrap(services.ErrTransient, "captioning", "write highlights", "Failed to write highlight windows", err)
		}
		item.HighlightsFile = highlightsPath
	}

	item.SetProgressComplete("Captioning", fmt.Sprintf("Captions ready (%d cues)", len(cues)))
	logger.Info(
		"captions generated",
		logging.String("subtitle_file", srtPath),
		logging.Int("cues", len(cues)),
		logging.Int("words", report.Words),
		logging.Int("matched", report.Matched),
		logging.Int("lookahead", report.Lookahead),
		logging.Int("estimated", report.Estimated),
		logging.Float64("average_confidence", report.AverageConfidence),
		logging.Bool("duration_clamped", report.DurationClamped),
	)

	if c.notifier != nil {
		if err := c.notifier.NotifyCaptionsReady(ctx, item.Title, len(cues)); err != nil {
			logger.Warn("caption notification failed", logging.Error(err))
		}
	}
	return nil
}

// collectObservations picks the timing source. "tts" uses the provider
// boundaries from synthesis, "whisper" re-times the rendered audio, and
// "auto" prefers whisper when available but falls back to the provider
// boundaries if transcription fails.
func (c *Captioner) collectObservations(ctx context.Context, item *queue.Item, doc captions.TimingsDocument) ([]captions.TimingObservation, string, error) {
	logger := logging.WithContext(ctx, c.logger)
	source := strings.ToLower(strings.TrimSpace(c.cfg.Captions.TimingSource))
	if source == "" {
		source = "auto"
	}

	useWhisper := false
	switch source {
	case "tts":
	case "whisper":
		if c.transcriber == nil {
			return nil, "", services.Wrap(services.ErrConfiguration, "captioning", "resolve timing source", "Whisper timing requested but transcription is not enabled", nil)
		}
		useWhisper = true
	case "auto":
		useWhisper = c.cfg.Whisper.Enabled && c.transcriber != nil
	default:
		return nil, "", services.Wrap(services.ErrConfiguration, "captioning", "resolve timing source", fmt.Sprintf("Unknown timing source %q", source), nil)
	}

	if !useWhisper {
		if len(doc.Observations) == 0 {
			return nil, "", services.Wrap(services.ErrValidation, "captioning", "load timings", "Timing document contains no observations", nil)
		}
		return doc.Observations, "tts", nil
	}

	c.updateProgress(ctx, item, "Transcribing narration", 20)
	observations, err := c.transcribe(ctx, item)
	if err != nil {
		if source == "whisper" {
			return nil, "", services.Wrap(services.ExternalMarker(err), "captioning", "transcribe narration", "WhisperX transcription failed", err)
		}
		logger.Warn("whisper transcription failed, falling back to provider timings", logging.Error(err))
		if len(doc.Observations) == 0 {
			return nil, "", services.Wrap(services.ExternalMarker(err), "captioning", "transcribe narration", "WhisperX failed and no provider timings are available", err)
		}
		return doc.Observations, "tts", nil
	}
	if len(observations) == 0 {
		if source == "whisper" {
			return nil, "", services.Wrap(services.ErrExternalTool, "captioning", "transcribe narration", "WhisperX produced no word timings", nil)
		}
		logger.Warn("whisper produced no word timings, falling back to provider timings")
		return doc.Observations, "tts", nil
	}
	return observations, "whisper", nil
}

func (c *Captioner) transcribe(ctx context.Context, item *queue.Item) ([]captions.TimingObservation, error) {
	workDir := filepath.Join(narration.ItemWorkDir(c.cfg, item), "whisper")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure whisper dir: %w", err)
	}
	wavPath := filepath.Join(workDir, "narration.wav")
	if err := c.transcriber.ExtractAudio(ctx, item.AudioFile, wavPath); err != nil {
		return nil, fmt.Errorf("extract audio: %w", err)
	}
	result, err := c.transcriber.TranscribeFile(ctx, wavPath, workDir)
	if err != nil {
		return nil, err
	}
	return whisper.LoadObservations(result.JSONPath)
}

// cueHighlights pairs one cue's interval with its word highlight windows.
type cueHighlights struct {
	Cue     int                        `json:"cue"`
	Start   float64                    `json:"start"`
	End     float64                    `json:"end"`
	Text    string                     `json:"text"`
	Windows []captions.HighlightWindow `json:"windows"`
}

func writeHighlights(path string, cues []captions.Cue) error {
	payload := make([]cueHighlights, 0, len(cues))
	for i, cue := range cues {
		payload = append(payload, cueHighlights{
			Cue:     i + 1,
			Start:   cue.Start,
			End:     cue.End,
			Text:    cue.Text(),
			Windows: cue.Highlights(),
		})
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0o644)
}

// HealthCheck verifies captioning prerequisites.
func (c *Captioner) HealthCheck(ctx context.Context) stage.Health {
	const name = "captioning"
	if c.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	source := strings.ToLower(strings.TrimSpace(c.cfg.Captions.TimingSource))
	if source == "whisper" && c.transcriber == nil {
		return stage.Unhealthy(name, "whisper timing requested but transcription disabled")
	}
	if c.cfg.Captions.MaxCharsPerLine <= 0 || c.cfg.Captions.MaxCueDuration <= 0 {
		return stage.Unhealthy(name, "caption limits not configured")
	}
	return stage.Healthy(name)
}

func (c *Captioner) updateProgress(ctx context.Context, item *queue.Item, message string, percent float64) {
	logger := logging.WithContext(ctx, c.logger)
	copy := *item
	copy.ProgressMessage = message
	copy.ProgressPercent = percent
	if err := c.store.Update(ctx, &copy); err != nil {
		logger.Warn("failed to persist captioning progress", logging.Error(err))
		return
	}
	*item = copy
}
