// Package workflow drives queued items through the production pipeline,
// claiming work from the store and handing it to the registered stage
// handlers with bounded concurrency.
package workflow

import (
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
)

// StageSet holds the handler for each pipeline stage. Nil handlers are
// skipped, which lets a deployment run a partial pipeline.
type StageSet struct {
	Scripter  stage.Handler
	Narrator  stage.Handler
	Captioner stage.Handler
	Assembler stage.Handler
	Publisher stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

func (s StageSet) pipeline() []pipelineStage {
	table := []pipelineStage{
		{"scripting", s.Scripter, queue.StatusPending, queue.StatusScripting, queue.StatusScripted},
		{"narration", s.Narrator, queue.StatusScripted, queue.StatusSynthesizing, queue.StatusSynthesized},
		{"captioning", s.Captioner, queue.StatusSynthesized, queue.StatusCaptioning, queue.StatusCaptioned},
		{"assembly", s.Assembler, queue.StatusCaptioned, queue.StatusAssembling, queue.StatusAssembled},
		{"publishing", s.Publisher, queue.StatusAssembled, queue.StatusPublishing, queue.StatusCompleted},
	}
	stages := make([]pipelineStage, 0, len(table))
	for _, entry := range table {
		if entry.handler == nil {
			continue
		}
		stages = append(stages, entry)
	}
	return stages
}

// Manager coordinates queue processing across the registered stages.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	stages       []pipelineStage
	pollInterval time.Duration
	errorRetry   time.Duration
	heartbeat    *HeartbeatMonitor
	sem          chan struct{}

	mu      sync.RWMutex
	running bool
	cancel  func()
	wg      sync.WaitGroup
	lastErr error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithPollInterval overrides the queue poll interval (used in tests).
func WithPollInterval(interval time.Duration) ManagerOption {
	return func(m *Manager) {
		if interval > 0 {
			m.pollInterval = interval
		}
	}
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, stages StageSet, opts ...ManagerOption) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, stages, notifications.NewService(cfg), opts...)
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, stages StageSet, notifier notifications.Service, opts ...ManagerOption) *Manager {
	concurrency := cfg.Workflow.MaxConcurrentItems
	if concurrency <= 0 {
		concurrency = 1
	}
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		stages:       stages.pipeline(),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		errorRetry:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		sem: make(chan struct{}, concurrency),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Running reports whether the manager is processing the queue.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent processing error, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
