package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending      Status = "pending"
	StatusScripting    Status = "scripting"
	StatusScripted     Status = "scripted"
	StatusSynthesizing Status = "synthesizing"
	StatusSynthesized  Status = "synthesized"
	StatusCaptioning   Status = "captioning"
	StatusCaptioned    Status = "captioned"
	StatusAssembling   Status = "assembling"
	StatusAssembled    Status = "assembled"
	StatusPublishing   Status = "publishing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusScripting,
	StatusScripted,
	StatusSynthesizing,
	StatusSynthesized,
	StatusCaptioning,
	StatusCaptioned,
	StatusAssembling,
	StatusAssembled,
	StatusPublishing,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusScripting:    {},
	StatusSynthesizing: {},
	StatusCaptioning:   {},
	StatusAssembling:   {},
	StatusPublishing:   {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map an interrupted processing status back to the
// start of its stage so a reclaimed item re-runs only the stage that died.
var stageRollbackTransitions = []statusTransition{
	{from: StatusScripting, to: StatusPending},
	{from: StatusSynthesizing, to: StatusScripted},
	{from: StatusCaptioning, to: StatusSynthesized},
	{from: StatusAssembling, to: StatusCaptioned},
	{from: StatusPublishing, to: StatusAssembled},
}

// HealthSummary describes aggregated queue counts per key lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// Item represents a content item persisted in SQLite. File path columns are
// filled in as the item progresses through the stages.
type Item struct {
	ID              int64
	Topic           string
	Title           string
	Status          Status
	ScriptText      string
	MetadataJSON    string
	AudioFile       string
	TimingsFile     string
	SubtitleFile    string
	HighlightsFile  string
	VideoFile       string
	FinalURL        string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether an item has left the pipeline.
func (i Item) IsTerminal() bool {
	switch i.Status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// SetProgress updates all three progress fields atomically.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
// Clears heartbeat and sets progress fields appropriately.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// SetReview parks the item for manual intervention.
func (i *Item) SetReview(reason string) {
	i.Status = StatusReview
	i.NeedsReview = true
	i.ReviewReason = reason
	i.ErrorMessage = reason
	i.LastHeartbeat = nil
	i.ProgressStage = "Review"
	i.ProgressMessage = reason
	i.ProgressPercent = 0
}
