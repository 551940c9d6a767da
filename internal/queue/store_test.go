package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reelsmith/internal/queue"
)

func mustOpen(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewItemAndGet(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "ocean facts", "Five Ocean Facts")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", item.Status)
	}
	if item.Topic != "ocean facts" || item.Title != "Five Ocean Facts" {
		t.Fatalf("item = %+v", item)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched == nil || fetched.Topic != item.Topic {
		t.Fatalf("fetched = %+v", fetched)
	}

	missing, err := store.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing item, got %+v", missing)
	}
}

func TestNewItemRequiresTopic(t *testing.T) {
	store := mustOpen(t)
	if _, err := store.NewItem(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for blank topic")
	}
}

func TestClaimNextTransitionsOldestFirst(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	first, err := store.NewItem(ctx, "first topic", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	if _, err := store.NewItem(ctx, "second topic", ""); err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	claimed, err := store.ClaimNext(ctx, queue.StatusPending, queue.StatusScripting)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("claimed = %+v, want item %d", claimed, first.ID)
	}
	if claimed.Status != queue.StatusScripting {
		t.Fatalf("claimed status = %s", claimed.Status)
	}
	if claimed.LastHeartbeat == nil {
		t.Fatal("expected heartbeat on claim")
	}

	stored, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusScripting {
		t.Fatalf("persisted status = %s", stored.Status)
	}

	// Only one pending item remains.
	second, err := store.ClaimNext(ctx, queue.StatusPending, queue.StatusScripting)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if second == nil || second.ID == first.ID {
		t.Fatalf("second claim = %+v", second)
	}

	none, err := store.ClaimNext(ctx, queue.StatusPending, queue.StatusScripting)
	if err != nil {
		t.Fatalf("ClaimNext empty: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil claim, got %+v", none)
	}
}

func TestUpdatePersistsFields(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "volcano myths", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	item.Status = queue.StatusCaptioned
	item.ScriptText = "A short script."
	item.AudioFile = "/work/1/narration.mp3"
	item.TimingsFile = "/work/1/timings.json"
	item.SubtitleFile = "/work/1/captions.srt"
	item.SetProgressComplete("Captioning", "Captions generated")

	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCaptioned {
		t.Errorf("status = %s", stored.Status)
	}
	if stored.ScriptText != item.ScriptText || stored.SubtitleFile != item.SubtitleFile {
		t.Errorf("stored = %+v", stored)
	}
	if stored.ProgressPercent != 100 || stored.ProgressStage != "Captioning" {
		t.Errorf("progress = %s %f", stored.ProgressStage, stored.ProgressPercent)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "deep sea life", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	item.Status = queue.StatusCaptioning
	stale := time.Now().UTC().Add(-10 * time.Minute)
	item.LastHeartbeat = &stale
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("reclaimed = %d, want 1", reclaimed)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// Captioning rolls back to the start of its stage, not to pending.
	if stored.Status != queue.StatusSynthesized {
		t.Fatalf("status = %s, want synthesized", stored.Status)
	}
	if stored.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared")
	}
}

func TestReclaimSkipsFreshHeartbeats(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "mountain weather", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	item.Status = queue.StatusScripting
	fresh := time.Now().UTC()
	item.LastHeartbeat = &fresh
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if reclaimed != 0 {
		t.Fatalf("reclaimed = %d, want 0", reclaimed)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "city history", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	item.Status = queue.StatusPublishing
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing: %v", err)
	}
	if reset != 1 {
		t.Fatalf("reset = %d, want 1", reset)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusAssembled {
		t.Fatalf("status = %s, want assembled", stored.Status)
	}
}

func TestRetryFailed(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "space telescopes", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	item.SetFailed("synthesis timed out")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	retried, err := store.RetryFailed(ctx, item.ID)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("retried = %d, want 1", retried)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", stored.Status)
	}
	if stored.ErrorMessage != "" {
		t.Fatalf("error message = %q, want cleared", stored.ErrorMessage)
	}
}

func TestFindByTopicSkipsTerminalItems(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	done, err := store.NewItem(ctx, "glacier melt", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, err := store.FindByTopic(ctx, "glacier melt")
	if err != nil {
		t.Fatalf("FindByTopic: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil for completed topic, got %+v", found)
	}

	active, err := store.NewItem(ctx, "glacier melt", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	found, err = store.FindByTopic(ctx, "glacier melt")
	if err != nil {
		t.Fatalf("FindByTopic: %v", err)
	}
	if found == nil || found.ID != active.ID {
		t.Fatalf("found = %+v, want item %d", found, active.ID)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	for _, status := range []queue.Status{queue.StatusPending, queue.StatusCaptioning, queue.StatusCompleted, queue.StatusFailed, queue.StatusReview} {
		item, err := store.NewItem(ctx, "topic "+string(status), "")
		if err != nil {
			t.Fatalf("NewItem: %v", err)
		}
		item.Status = status
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	want := queue.HealthSummary{Total: 5, Pending: 1, Processing: 1, Failed: 1, Review: 1, Completed: 1}
	if health != want {
		t.Fatalf("health = %+v, want %+v", health, want)
	}
}

func TestRemoveAndClear(t *testing.T) {
	store := mustOpen(t)
	ctx := context.Background()

	item, err := store.NewItem(ctx, "desert ecology", "")
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	removed, err := store.Remove(ctx, item.ID)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	removed, err = store.Remove(ctx, item.ID)
	if err != nil || removed {
		t.Fatalf("second Remove = %v, %v", removed, err)
	}

	if _, err := store.NewItem(ctx, "another topic", ""); err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear = %d, %v", cleared, err)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Captioning "); !ok || status != queue.StatusCaptioning {
		t.Fatalf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := queue.ParseStatus("bogus"); ok {
		t.Fatal("expected unknown status to fail")
	}
}
