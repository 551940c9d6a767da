package scripting_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/scripting"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/testsupport"
)

type fakeGenerator struct {
	script llm.Script
	err    error
	topics []string
}

func (f *fakeGenerator) GenerateScript(ctx context.Context, topic string) (llm.Script, error) {
	f.topics = append(f.topics, topic)
	return f.script, f.err
}

func (f *fakeGenerator) HealthCheck(ctx context.Context) error { return f.err }

func TestScripterExecutePopulatesItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "octopus hearts", "")

	generator := &fakeGenerator{script: llm.Script{
		Title:     "Why Octopuses Have Three Hearts",
		Hook:      "An octopus has three hearts.",
		Narration: "An octopus has three hearts. Two pump blood to the gills.",
		Keywords:  []string{"octopus", "ocean"},
		Hashtags:  []string{"octopus", "marinelife"},
	}}
	handler := scripting.NewScripterWithDependencies(cfg, store, logging.NewNop(), generator, notifications.NewService(cfg))

	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if item.Title != "Why Octopuses Have Three Hearts" {
		t.Fatalf("unexpected title %q", item.Title)
	}
	if !strings.HasPrefix(item.ScriptText, "An octopus has three hearts.") {
		t.Fatalf("unexpected script text %q", item.ScriptText)
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got %v", item.ProgressPercent)
	}

	meta := queue.MetadataFromJSON(item.MetadataJSON)
	if meta.Hook != "An octopus has three hearts." {
		t.Fatalf("unexpected hook %q", meta.Hook)
	}
	if len(meta.Keywords) != 2 || meta.Keywords[0] != "octopus" {
		t.Fatalf("unexpected keywords %v", meta.Keywords)
	}
	if len(generator.topics) != 1 || generator.topics[0] != "octopus hearts" {
		t.Fatalf("unexpected generator calls %v", generator.topics)
	}
}

func TestScripterExecuteRequiresTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "placeholder", "")
	item.Topic = "   "

	handler := scripting.NewScripterWithDependencies(cfg, store, logging.NewNop(), &fakeGenerator{}, notifications.NewService(cfg))
	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected missing topic to fail")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review status for validation failure")
	}
}

func TestScripterExecuteWrapsGeneratorFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.NewItem(t, store, "octopus hearts", "")

	generator := &fakeGenerator{err: errors.New("model unavailable")}
	handler := scripting.NewScripterWithDependencies(cfg, store, logging.NewNop(), generator, notifications.NewService(cfg))

	err := handler.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected generator failure to surface")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if services.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("expected failed status for external tool failure")
	}
}

func TestScripterHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	healthy := scripting.NewScripterWithDependencies(cfg, store, logging.NewNop(), &fakeGenerator{}, notifications.NewService(cfg))
	if health := healthy.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}

	cfgNoKey := testsupport.NewConfig(t)
	cfgNoKey.LLM.APIKey = ""
	unhealthy := scripting.NewScripterWithDependencies(cfgNoKey, store, logging.NewNop(), &fakeGenerator{}, notifications.NewService(cfgNoKey))
	if health := unhealthy.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected missing api key to be unhealthy")
	}
}
