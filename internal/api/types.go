package api

import (
	"time"

	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
)

// QueueItem is the wire representation of a queue entry.
type QueueItem struct {
	ID              int64      `json:"id"`
	Topic           string     `json:"topic"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	ScriptText      string     `json:"script_text,omitempty"`
	AudioFile       string     `json:"audio_file,omitempty"`
	TimingsFile     string     `json:"timings_file,omitempty"`
	SubtitleFile    string     `json:"subtitle_file,omitempty"`
	HighlightsFile  string     `json:"highlights_file,omitempty"`
	VideoFile       string     `json:"video_file,omitempty"`
	FinalURL        string     `json:"final_url,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	ProgressStage   string     `json:"progress_stage,omitempty"`
	ProgressPercent float64    `json:"progress_percent"`
	ProgressMessage string     `json:"progress_message,omitempty"`
	NeedsReview     bool       `json:"needs_review"`
	ReviewReason    string     `json:"review_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastHeartbeat   *time.Time `json:"last_heartbeat,omitempty"`
}

// FromQueueItem converts a store item into its wire representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:              item.ID,
		Topic:           item.Topic,
		Title:           item.Title,
		Status:          string(item.Status),
		ScriptText:      item.ScriptText,
		AudioFile:       item.AudioFile,
		TimingsFile:     item.TimingsFile,
		SubtitleFile:    item.SubtitleFile,
		HighlightsFile:  item.HighlightsFile,
		VideoFile:       item.VideoFile,
		FinalURL:        item.FinalURL,
		ErrorMessage:    item.ErrorMessage,
		ProgressStage:   item.ProgressStage,
		ProgressPercent: item.ProgressPercent,
		ProgressMessage: item.ProgressMessage,
		NeedsReview:     item.NeedsReview,
		ReviewReason:    item.ReviewReason,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
		LastHeartbeat:   item.LastHeartbeat,
	}
}

// StageHealth describes readiness of a workflow stage.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// FromStageHealth converts a stage health record into its wire representation.
func FromStageHealth(health stage.Health) StageHealth {
	return StageHealth{Name: health.Name, Ready: health.Ready, Detail: health.Detail}
}

// StatusResponse represents combined daemon and workflow status.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueStats   map[string]int `json:"queue_stats"`
	StageHealth  []StageHealth  `json:"stage_health"`
	LastError    string         `json:"last_error,omitempty"`
	QueueDBPath  string         `json:"queue_db_path"`
	LockPath     string         `json:"lock_path"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// AddTopicRequest enqueues a new content topic.
type AddTopicRequest struct {
	Topic string `json:"topic"`
}

// RetryRequest retries failed items. An empty list retries all failed items.
type RetryRequest struct {
	IDs []int64 `json:"ids"`
}

// CountResponse reports the number of affected queue entries.
type CountResponse struct {
	Count int64 `json:"count"`
}

// HealthResponse reports aggregate queue diagnostics.
type HealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Failed     int `json:"failed"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
}

// NotificationTestResponse reports notification test outcome.
type NotificationTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ErrorResponse carries a machine-readable error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
