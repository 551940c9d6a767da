package workflow

import (
	"context"

	"reelsmith/internal/stage"
)

// Health runs each registered stage's health check and returns the results
// in pipeline order.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	checks := make([]stage.Health, 0, len(m.stages))
	for _, st := range m.stages {
		checks = append(checks, st.handler.HealthCheck(ctx))
	}
	return checks
}

// Ready reports whether every registered stage passes its health check.
func (m *Manager) Ready(ctx context.Context) bool {
	for _, check := range m.Health(ctx) {
		if !check.Ready {
			return false
		}
	}
	return true
}
