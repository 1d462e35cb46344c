package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/blobgate/component"
	"github.com/kbukum/blobgate/logger"
)

// Component owns the storage backend for the process lifetime.
type Component struct {
	cfg     Config
	log     *logger.Logger
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, log *logger.Logger) *Component {
	return &Component{cfg: cfg, log: log}
}

// Storage returns the backend, or nil before Start.
func (c *Component) Storage() Storage {
	return c.storage
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// Start builds the backend.
func (c *Component) Start(ctx context.Context) error {
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.storage = s
	return nil
}

// Stop releases the backend. Backends hold no resources beyond their HTTP
// client, so this only drops the reference.
func (c *Component) Stop(context.Context) error {
	c.storage = nil
	return nil
}

// Health pings backends that support it.
func (c *Component) Health(ctx context.Context) component.Health {
	if c.storage == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "storage not initialized"}
	}
	if hc, ok := c.storage.(HealthChecker); ok {
		if err := hc.Ping(ctx); err != nil {
			c.log.Warn("storage health probe failed", logger.Fields(logger.FieldError, err))
			return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "backend unreachable"}
		}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns infrastructure summary info for the startup log.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("container=%s", c.cfg.Container)
	if conn, err := ParseConnectionString(c.cfg.ConnectionString); err == nil {
		details = conn.String() + " " + details
	}
	return component.Description{Type: "storage", Details: details}
}
