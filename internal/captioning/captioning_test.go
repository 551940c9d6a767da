package captioning_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/captioning"
	"reelsmith/internal/captions"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/narration"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/whisper"
	"reelsmith/internal/testsupport"
)

const whisperJSON = `{
  "segments": [
    {
      "text": "Hello world this is a test",
      "start": 0.0,
      "end": 3.0,
      "words": [
        {"word": "Hello", "start": 0.0, "end": 0.4, "score": 0.99},
        {"word": "world", "start": 0.5, "end": 0.9, "score": 0.97},
        {"word": "this", "start": 1.0, "end": 1.3, "score": 0.96},
        {"word": "is", "start": 1.4, "end": 1.5, "score": 0.95},
        {"word": "a", "start": 1.6, "end": 1.7, "score": 0.9},
        {"word": "test", "start": 1.8, "end": 2.4, "score": 0.98}
      ]
    }
  ]
}`

type fakeTranscriber struct {
	err       error
	extracted []string
	runs      int
}

func (f *fakeTranscriber) ExtractAudio(ctx context.Context, source, dest string) error {
	f.extracted = append(f.extracted, source)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("wav"), 0o644)
}

func (f *fakeTranscriber) TranscribeFile(ctx context.Context, source, outputDir string) (whisper.TranscribeResult, error) {
	f.runs++
	if f.err != nil {
		return whisper.TranscribeResult{}, f.err
	}
	jsonPath := filepath.Join(outputDir, "narration.json")
	if err := os.WriteFile(jsonPath, []byte(whisperJSON), 0o644); err != nil {
		return whisper.TranscribeResult{}, err
	}
	return whisper.TranscribeResult{JSONPath: jsonPath}, nil
}

type fakeProber struct {
	duration float64
	err      error
	calls    int
}

func (f *fakeProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	f.calls++
	return f.duration, f.err
}

func providerObservations() []captions.TimingObservation {
	words := []struct {
		text       string
		start, end float64
	}{
		{"Hello", 0.0, 0.4},
		{"world,", 0.5, 0.9},
		{"this", 1.0, 1.3},
		{"is", 1.4, 1.5},
		{"a", 1.6, 1.7},
		{"test.", 1.8, 2.4},
	}
	observations := make([]captions.TimingObservation, 0, len(words))
	for _, w := range words {
		observations = append(observations, captions.TimingObservation{
			Text:       w.text,
			Start:      w.start,
			End:        w.end,
			Confidence: 1.0,
			Source:     captions.ObservationProviderBoundary,
		})
	}
	return observations
}

func newCaptioningItem(t *testing.T, cfg *config.Config, store *queue.Store, duration float64) *queue.Item {
	t.Helper()
	item := testsupport.NewItem(t, store, "test topic", "Test Title")
	item.ScriptText = "Hello world, this is a test."

	workDir := narration.ItemWorkDir(cfg, item)
	audioPath := filepath.Join(workDir, "narration.mp3")
	testsupport.WriteFile(t, audioPath, []byte("audio"))
	item.AudioFile = audioPath

	timingsPath := filepath.Join(workDir, "timings.json")
	doc := captions.TimingsDocument{Duration: duration, Observations: providerObservations()}
	if err := captions.SaveTimings(timingsPath, doc); err != nil {
		t.Fatalf("SaveTimings: %v", err)
	}
	item.TimingsFile = timingsPath
	return item
}

func TestCaptionerExecuteWithProviderTimings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Captions.TimingSource = "tts"
	store := testsupport.MustOpenStore(t, cfg)
	item := newCaptioningItem(t, cfg, store, 3.0)

	prober := &fakeProber{duration: 3.0}
	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), nil, prober, notifications.NewService(cfg))

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if item.SubtitleFile == "" {
		t.Fatal("expected subtitle file to be recorded")
	}
	data, err := os.ReadFile(item.SubtitleFile)
	if err != nil {
		t.Fatalf("read subtitle file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "-->") {
		t.Fatalf("expected SRT timing lines, got %q", content)
	}
	if !strings.Contains(content, "Hello world, this is a test.") &&
		!strings.Contains(content, "Hello world,") {
		t.Fatalf("expected script text in captions, got %q", content)
	}

	cues, err := captions.Parse(content)
	if err != nil {
		t.Fatalf("exported SRT failed to parse: %v", err)
	}
	if len(cues) == 0 {
		t.Fatal("expected at least one cue")
	}
	if prober.calls != 0 {
		t.Fatalf("expected no duration probe when document carries duration, got %d", prober.calls)
	}
	if item.HighlightsFile != "" {
		t.Fatalf("expected no highlights file without karaoke, got %q", item.HighlightsFile)
	}
}

func TestCaptionerExecuteKaraokeWritesHighlights(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Captions.TimingSource = "tts"
	cfg.Captions.Karaoke = true
	store := testsupport.MustOpenStore(t, cfg)
	item := newCaptioningItem(t, cfg, store, 3.0)

	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), nil, &fakeProber{}, notifications.NewService(cfg))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if item.HighlightsFile == "" {
		t.Fatal("expected highlights file to be recorded")
	}
	data, err := os.ReadFile(item.HighlightsFile)
	if err != nil {
		t.Fatalf("read highlights file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "\"windows\"") || !strings.Contains(content, "\"word_index\"") {
		t.Fatalf("expected highlight windows in payload, got %q", content)
	}
}

func TestCaptionerExecuteWhisperSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWhisperEnabled(true))
	cfg.Captions.TimingSource = "whisper"
	store := testsupport.MustOpenStore(t, cfg)
	item := newCaptioningItem(t, cfg, store, 3.0)

	transcriber := &fakeTranscriber{}
	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), transcriber, &fakeProber{}, notifications.NewService(cfg))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if transcriber.runs != 1 {
		t.Fatalf("expected one transcription run, got %d", transcriber.runs)
	}
	if len(transcriber.extracted) != 1 || transcriber.extracted[0] != item.AudioFile {
		t.Fatalf("expected narration audio to be extracted, got %v", transcriber.extracted)
	}
	if item.SubtitleFile == "" {
		t.Fatal("expected subtitle file to be recorded")
	}
}

func TestCaptionerAutoFallsBackWhenWhisperFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWhisperEnabled(true))
	cfg.Captions.TimingSource = "auto"
	store := testsupport.MustOpenStore(t, cfg)
	item := newCaptioningItem(t, cfg, store, 3.0)

	transcriber := &fakeTranscriber{err: errors.New("uvx not installed")}
	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), transcriber, &fakeProber{}, notifications.NewService(cfg))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("expected fallback to provider timings, got error: %v", err)
	}
	if item.SubtitleFile == "" {
		t.Fatal("expected subtitle file from fallback timings")
	}
}

func TestCaptionerWhisperSourceFailsHard(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWhisperEnabled(true))
	cfg.Captions.TimingSource = "whisper"
	store := testsupport.MustOpenStore(t, cfg)
	item := newCaptioningItem(t, cfg, store, 3.0)

	transcriber := &fakeTranscriber{err: errors.New("uvx not installed")}
	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), transcriber, &fakeProber{}, notifications.NewService(cfg))
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestCaptionerProbesDurationWhenMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Captions.TimingSource = "tts"
	store := testsupport.MustOpenStore(t, cfg)
	item := newCaptioningItem(t, cfg, store, 0)

	prober := &fakeProber{duration: 3.0}
	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), nil, prober, notifications.NewService(cfg))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if prober.calls != 1 {
		t.Fatalf("expected one probe call, got %d", prober.calls)
	}
}

func TestCaptionerExecuteValidatesInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "topic", "Title")

	handler := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), nil, &fakeProber{}, notifications.NewService(cfg))
	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCaptionerHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	healthy := captioning.NewCaptionerWithDependencies(cfg, store, logging.NewNop(), nil, &fakeProber{}, notifications.NewService(cfg))
	if health := healthy.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}

	cfgWhisper := testsupport.NewConfig(t)
	cfgWhisper.Captions.TimingSource = "whisper"
	unhealthy := captioning.NewCaptionerWithDependencies(cfgWhisper, store, logging.NewNop(), nil, &fakeProber{}, notifications.NewService(cfgWhisper))
	if health := unhealthy.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected whisper source without transcriber to be unhealthy")
	}
}
