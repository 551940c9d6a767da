package publishing_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/publishing"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/youtube"
	"reelsmith/internal/testsupport"
)

type fakeUploader struct {
	url     string
	err     error
	uploads []youtube.Metadata
	paths   []string
}

func (f *fakeUploader) Upload(ctx context.Context, videoPath string, meta youtube.Metadata) (string, error) {
	f.paths = append(f.paths, videoPath)
	f.uploads = append(f.uploads, meta)
	return f.url, f.err
}

func (f *fakeUploader) HealthCheck(ctx context.Context) error { return f.err }

func TestPublisherExecuteUploadsVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publish.Enabled = true
	cfg.Publish.Tags = "shorts,facts"
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "ocean facts", "why the ocean glows at night")
	item.VideoFile = "/output/video.mp4"
	meta := queue.ItemMetadata{
		Hook:     "The ocean glows.",
		Hashtags: []string{"ocean", "bioluminescence"},
	}
	encoded, err := meta.ToJSON()
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	item.MetadataJSON = encoded

	uploader := &fakeUploader{url: "https://youtube.com/shorts/abc123"}
	handler := publishing.NewPublisherWithDependencies(cfg, store, logging.NewNop(), uploader, notifications.NewService(cfg))

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if item.FinalURL != "https://youtube.com/shorts/abc123" {
		t.Fatalf("unexpected final url %q", item.FinalURL)
	}
	if len(uploader.uploads) != 1 {
		t.Fatalf("expected one upload, got %d", len(uploader.uploads))
	}
	upload := uploader.uploads[0]
	if upload.Title != "Why The Ocean Glows At Night" {
		t.Fatalf("expected title-cased upload title, got %q", upload.Title)
	}
	if !strings.Contains(upload.Description, "The ocean glows.") {
		t.Fatalf("expected hook in description, got %q", upload.Description)
	}
	if !strings.Contains(upload.Description, "#ocean #bioluminescence") {
		t.Fatalf("expected hashtags in description, got %q", upload.Description)
	}
	if len(upload.Tags) != 2 || upload.Tags[0] != "ocean" {
		t.Fatalf("expected metadata hashtags as tags, got %v", upload.Tags)
	}
	if item.Title != "Why The Ocean Glows At Night" {
		t.Fatalf("expected item title updated, got %q", item.Title)
	}
}

func TestPublisherUsesConfiguredTagsWhenMetadataEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publish.Enabled = true
	cfg.Publish.Tags = "shorts, facts"
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "topic", "Some Title")
	item.VideoFile = "/output/video.mp4"

	uploader := &fakeUploader{url: "https://youtube.com/shorts/x"}
	handler := publishing.NewPublisherWithDependencies(cfg, store, logging.NewNop(), uploader, notifications.NewService(cfg))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if got := uploader.uploads[0].Tags; len(got) != 2 || got[0] != "shorts" || got[1] != "facts" {
		t.Fatalf("expected configured tags, got %v", got)
	}
}

func TestPublisherDisabledCompletesLocally(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publish.Enabled = false
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "topic", "Some Title")
	item.VideoFile = "/output/video.mp4"

	handler := publishing.NewPublisherWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewService(cfg))
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if item.FinalURL != "" {
		t.Fatalf("expected no final url, got %q", item.FinalURL)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected completed progress, got %v", item.ProgressPercent)
	}
}

func TestPublisherExecuteValidatesInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publish.Enabled = true
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "topic", "Title")
	handler := publishing.NewPublisherWithDependencies(cfg, store, logging.NewNop(), &fakeUploader{}, notifications.NewService(cfg))

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing video, got %v", err)
	}
}

func TestPublisherExecuteWrapsUploadFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publish.Enabled = true
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "topic", "Title")
	item.VideoFile = "/output/video.mp4"

	uploader := &fakeUploader{err: errors.New("quota exceeded")}
	handler := publishing.NewPublisherWithDependencies(cfg, store, logging.NewNop(), uploader, notifications.NewService(cfg))

	err := handler.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestPublisherHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Publish.Enabled = false
	store := testsupport.MustOpenStore(t, cfg)

	disabled := publishing.NewPublisherWithDependencies(cfg, store, logging.NewNop(), nil, notifications.NewService(cfg))
	if health := disabled.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected disabled publishing to be healthy, got %+v", health)
	}

	cfgEnabled := testsupport.NewConfig(t)
	cfgEnabled.Publish.Enabled = true
	broken := publishing.NewPublisherWithDependencies(cfgEnabled, store, logging.NewNop(), &fakeUploader{err: errors.New("token missing")}, notifications.NewService(cfgEnabled))
	if health := broken.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected failing uploader to be unhealthy")
	}
}
