package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// Start begins background queue processing. Items left in a processing
// state by a previous run are rolled back to the start of their stage
// before the dispatcher starts.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	logger := m.managerLogger()
	reset, err := m.store.ResetStuckProcessing(ctx)
	if err != nil {
		logger.Warn("failed to reset stuck processing items", logging.Error(err))
	} else if reset > 0 {
		logger.Info("reset stuck processing items", logging.Int64("count", reset))
	}

	go m.runDispatcher(runCtx, logger)
	return nil
}

// Stop terminates background processing and waits for in-flight items.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runDispatcher(ctx context.Context, logger *slog.Logger) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStaleItems(ctx, logger); err != nil {
			logger.Warn("reclaim stale processing failed; stuck items may remain", logging.Error(err))
		}

		claimed, err := m.dispatchOnce(ctx)
		if err != nil {
			m.handleDispatchError(ctx, logger, err)
			continue
		}
		if claimed == 0 {
			m.waitForItemOrShutdown(ctx)
		}
	}
}

// dispatchOnce walks the stage table once, claiming at most one item per
// stage. Claimed items run on worker goroutines bounded by the semaphore.
func (m *Manager) dispatchOnce(ctx context.Context) (int, error) {
	claimed := 0
	for _, st := range m.stages {
		select {
		case m.sem <- struct{}{}:
		case <-ctx.Done():
			return claimed, nil
		}

		item, err := m.store.ClaimNext(ctx, st.startStatus, st.processingStatus)
		if err != nil {
			<-m.sem
			if errors.Is(err, context.Canceled) {
				return claimed, nil
			}
			return claimed, err
		}
		if item == nil {
			<-m.sem
			continue
		}

		claimed++
		m.wg.Add(1)
		go func(st pipelineStage, item *queue.Item) {
			defer m.wg.Done()
			defer func() { <-m.sem }()
			m.processItem(ctx, st, item)
		}(st, item)
	}
	return claimed, nil
}

func (m *Manager) handleDispatchError(ctx context.Context, logger *slog.Logger, err error) {
	m.setLastError(err)
	logger.Error("failed to claim next queue item", logging.Error(err))
	select {
	case <-ctx.Done():
	case <-time.After(m.errorRetry):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) managerLogger() *slog.Logger {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	return base.With(logging.String(logging.FieldComponent, "workflow-manager"))
}
