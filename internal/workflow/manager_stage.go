package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
)

func (m *Manager) processItem(ctx context.Context, st pipelineStage, item *queue.Item) {
	requestID := uuid.NewString()
	stageCtx := services.WithRequestID(services.WithStage(services.WithItemID(ctx, item.ID), st.name), requestID)
	stageLogger := logging.WithContext(stageCtx, m.managerLogger()).With(
		logging.String(logging.FieldTopic, strings.TrimSpace(item.Topic)),
	)

	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String("processing_status", string(st.processingStatus)),
		logging.String("title", strings.TrimSpace(item.Title)),
	)

	if err := st.handler.Prepare(stageCtx, item); err != nil {
		m.handleStageFailure(stageCtx, stageLogger, st.name, item, err)
		return
	}
	if err := m.store.Update(stageCtx, item); err != nil {
		stageLogger.Error("failed to persist stage preparation", logging.Error(err))
		m.setLastError(err)
		return
	}

	execErr := m.executeWithHeartbeat(stageCtx, st.handler, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return
		}
		m.handleStageFailure(stageCtx, stageLogger, st.name, item, execErr)
		return
	}

	if item.Status == st.processingStatus || item.Status == "" {
		item.Status = st.doneStatus
	}
	item.LastHeartbeat = nil
	if item.Status == queue.StatusCompleted {
		if item.ProgressPercent < 100 {
			item.ProgressPercent = 100
		}
		if strings.TrimSpace(item.ProgressMessage) == "" {
			item.ProgressMessage = "Completed"
		}
	}
	if err := m.store.Update(stageCtx, item); err != nil {
		stageLogger.Error("failed to persist stage result", logging.Error(err))
		m.setLastError(err)
		return
	}
	stageLogger.Info(
		"stage completed",
		logging.String("next_status", string(item.Status)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
}

// executeWithHeartbeat runs the handler while a background loop keeps the
// item's heartbeat fresh so the reclaimer leaves it alone.
func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, item.ID)

	execErr := handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handleStageFailure(ctx context.Context, logger *slog.Logger, stageName string, item *queue.Item, stageErr error) {
	message := failureMessage(stageName, stageErr)
	resolved := services.FailureStatus(stageErr)
	if resolved == queue.StatusReview {
		item.SetReview(message)
	} else {
		item.SetFailed(message)
	}

	logger.Error(
		"stage failed",
		logging.String("resolved_status", string(resolved)),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	m.setLastError(stageErr)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}

	m.notifyStageFailure(ctx, logger, stageName, item, stageErr, resolved)
}

func (m *Manager) notifyStageFailure(ctx context.Context, logger *slog.Logger, stageName string, item *queue.Item, stageErr error, resolved queue.Status) {
	if m.notifier == nil {
		return
	}
	label := strings.TrimSpace(item.Title)
	if label == "" {
		label = strings.TrimSpace(item.Topic)
	}
	var err error
	if resolved == queue.StatusReview {
		err = m.notifier.NotifyReview(ctx, label, item.ReviewReason)
	} else {
		err = m.notifier.NotifyError(ctx, stageErr, stageName)
	}
	if err != nil {
		logger.Warn("failure notification failed", logging.Error(err))
	}
}

func failureMessage(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		return stageName + " failed"
	}
	return message
}
