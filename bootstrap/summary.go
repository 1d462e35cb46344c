package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/blobgate/component"
	"github.com/kbukum/blobgate/logger"
)

// logSummary writes the startup summary: overall health, each component's
// status and the startup duration. Component details were already logged by
// the registry as each one started.
func (a *App[C]) logSummary(ctx context.Context, took time.Duration) {
	healths := a.Components.HealthAll(ctx)
	for _, h := range healths {
		fields := logger.Fields(logger.FieldComponent, h.Name, logger.FieldStatus, string(h.Status))
		if h.Message != "" {
			fields["message"] = h.Message
		}
		if h.Status == component.StatusHealthy {
			a.Logger.Debug("component health", fields)
		} else {
			a.Logger.Warn("component health", fields)
		}
	}

	a.Logger.Info("application ready", logger.MergeWithDuration(logger.Fields(
		"name", a.Name,
		"version", a.Version,
		"components", len(healths),
		logger.FieldStatus, string(component.Overall(healths)),
	), took))
}
