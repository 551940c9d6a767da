package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workflow"
)

type stubStage struct {
	name           string
	executeHook    func(*queue.Item)
	executeErr     error
	executeErrFunc func(*queue.Item) error
	health         stage.Health

	mu   sync.Mutex
	runs int
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	item.ProgressStage = s.name
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	return nil
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if s.executeHook != nil {
		s.executeHook(item)
	}
	if s.executeErrFunc != nil {
		return s.executeErrFunc(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health { return s.health }

func (s *stubStage) executions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

type recordingNotifier struct {
	mu      sync.Mutex
	reviews []string
	errors  []string
}

func (r *recordingNotifier) NotifyItemQueued(context.Context, string) error       { return nil }
func (r *recordingNotifier) NotifyScriptReady(context.Context, string) error      { return nil }
func (r *recordingNotifier) NotifyNarrationReady(context.Context, string) error   { return nil }
func (r *recordingNotifier) NotifyCaptionsReady(context.Context, string, int) error {
	return nil
}
func (r *recordingNotifier) NotifyVideoAssembled(context.Context, string, string) error {
	return nil
}
func (r *recordingNotifier) NotifyPublished(context.Context, string, string) error { return nil }
func (r *recordingNotifier) TestNotification(context.Context) error                { return nil }

func (r *recordingNotifier) NotifyReview(_ context.Context, title, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews = append(r.reviews, reason)
	return nil
}

func (r *recordingNotifier) NotifyError(_ context.Context, err error, contextLabel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, contextLabel)
	return nil
}

func (r *recordingNotifier) reviewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reviews)
}

func (r *recordingNotifier) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func fullStageSet() (workflow.StageSet, []*stubStage) {
	scripter := newStubStage("scripting")
	narrator := newStubStage("narration")
	captioner := newStubStage("captioning")
	assembler := newStubStage("assembly")
	publisher := newStubStage("publishing")
	set := workflow.StageSet{
		Scripter:  scripter,
		Narrator:  narrator,
		Captioner: captioner,
		Assembler: assembler,
		Publisher: publisher,
	}
	return set, []*stubStage{scripter, narrator, captioner, assembler, publisher}
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		item, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if item.Status == want {
			return item
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startManager(t *testing.T, mgr *workflow.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(mgr.Stop)
}

func TestManagerProcessesItemThroughAllStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stubs := fullStageSet()
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, notifier, workflow.WithPollInterval(10*time.Millisecond))
	startManager(t, mgr)

	item := testsupport.NewItem(t, store, "ocean facts", "")
	final := waitForStatus(t, store, item.ID, queue.StatusCompleted)

	for _, stub := range stubs {
		if stub.executions() != 1 {
			t.Fatalf("expected stage %s to run once, got %d", stub.name, stub.executions())
		}
	}
	if final.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", final.ProgressPercent)
	}
	if notifier.errorCount() != 0 || notifier.reviewCount() != 0 {
		t.Fatal("expected no failure notifications")
	}
}

func TestManagerProcessesMultipleItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.MaxConcurrentItems = 2
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := fullStageSet()
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, &recordingNotifier{}, workflow.WithPollInterval(10*time.Millisecond))
	startManager(t, mgr)

	first := testsupport.NewItem(t, store, "ocean facts", "")
	second := testsupport.NewItem(t, store, "volcano facts", "")

	waitForStatus(t, store, first.ID, queue.StatusCompleted)
	waitForStatus(t, store, second.ID, queue.StatusCompleted)
}

func TestManagerFailedItemDoesNotAffectSiblings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.MaxConcurrentItems = 2
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := fullStageSet()

	// Hold both items inside scripting until each has started executing, so
	// the failure below happens while the sibling is in flight.
	var barrier sync.WaitGroup
	barrier.Add(2)
	gate := newStubStage("scripting")
	gate.executeHook = func(*queue.Item) {
		barrier.Done()
		barrier.Wait()
	}
	set.Scripter = gate

	broken := newStubStage("narration")
	broken.executeErrFunc = func(item *queue.Item) error {
		if item.Topic == "volcano facts" {
			return services.Wrap(services.ErrExternalTool, "narration", "synthesize", "Voice synthesis failed", errors.New("api down"))
		}
		return nil
	}
	set.Narrator = broken

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, notifier, workflow.WithPollInterval(10*time.Millisecond))
	startManager(t, mgr)

	healthy := testsupport.NewItem(t, store, "ocean facts", "")
	doomed := testsupport.NewItem(t, store, "volcano facts", "")

	failed := waitForStatus(t, store, doomed.ID, queue.StatusFailed)
	survivor := waitForStatus(t, store, healthy.ID, queue.StatusCompleted)

	if failed.ErrorMessage == "" {
		t.Fatal("expected failed item to record an error message")
	}
	if survivor.ProgressPercent != 100 {
		t.Fatalf("expected sibling to finish cleanly, got %v%%", survivor.ProgressPercent)
	}
	if notifier.reviewCount() != 0 {
		t.Fatal("expected no review notifications for an external failure")
	}
}

func TestManagerRoutesValidationFailuresToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := fullStageSet()
	broken := newStubStage("scripting")
	broken.executeErr = services.Wrap(services.ErrValidation, "scripting", "validate inputs", "Topic is required", nil)
	set.Scripter = broken

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, notifier, workflow.WithPollInterval(10*time.Millisecond))
	startManager(t, mgr)

	item := testsupport.NewItem(t, store, "ocean facts", "")
	final := waitForStatus(t, store, item.ID, queue.StatusReview)

	if !final.NeedsReview {
		t.Fatal("expected item flagged for review")
	}
	if final.ReviewReason == "" {
		t.Fatal("expected review reason to be recorded")
	}

	deadline := time.After(5 * time.Second)
	for notifier.reviewCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected review notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerMarksExternalFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := fullStageSet()
	broken := newStubStage("narration")
	broken.executeErr = services.Wrap(services.ErrExternalTool, "narration", "synthesize", "Voice synthesis failed", errors.New("api down"))
	set.Narrator = broken

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, notifier, workflow.WithPollInterval(10*time.Millisecond))
	startManager(t, mgr)

	item := testsupport.NewItem(t, store, "ocean facts", "")
	final := waitForStatus(t, store, item.ID, queue.StatusFailed)

	if final.ErrorMessage == "" {
		t.Fatal("expected error message to be recorded")
	}

	deadline := time.After(5 * time.Second)
	for notifier.errorCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected error notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerResetsStuckProcessingOnStart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	item := testsupport.NewItem(t, store, "ocean facts", "")
	item.Status = queue.StatusScripting
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	set, stubs := fullStageSet()
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, &recordingNotifier{}, workflow.WithPollInterval(10*time.Millisecond))
	startManager(t, mgr)

	waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if stubs[0].executions() != 1 {
		t.Fatalf("expected scripting to rerun after reset, got %d runs", stubs[0].executions())
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), workflow.StageSet{}, &recordingNotifier{})
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error for empty stage set")
	}
}

func TestManagerHealthAggregatesStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := fullStageSet()
	broken := newStubStage("assembly")
	broken.health = stage.Unhealthy("assembly", "ffmpeg missing")
	set.Assembler = broken

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), set, &recordingNotifier{})
	checks := mgr.Health(context.Background())
	if len(checks) != 5 {
		t.Fatalf("expected 5 health checks, got %d", len(checks))
	}
	if mgr.Ready(context.Background()) {
		t.Fatal("expected unhealthy stage to fail readiness")
	}

	unready := 0
	for _, check := range checks {
		if !check.Ready {
			unready++
			if check.Detail != "ffmpeg missing" {
				t.Fatalf("unexpected detail %q", check.Detail)
			}
		}
	}
	if unready != 1 {
		t.Fatalf("expected one unhealthy stage, got %d", unready)
	}
}
