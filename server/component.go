package server

import (
	"context"
	"fmt"

	"github.com/kbukum/blobgate/component"
)

const componentName = "http-server"

var (
	_ component.Component   = (*ServerComponent)(nil)
	_ component.Describable = (*ServerComponent)(nil)
)

// ServerComponent wraps Server to implement component.Component.
type ServerComponent struct {
	server *Server
}

// NewComponent returns a component.Component backed by the given Server.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

// Name returns the component name used for registration.
func (sc *ServerComponent) Name() string { return componentName }

// Start starts the underlying HTTP server.
func (sc *ServerComponent) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the underlying HTTP server.
func (sc *ServerComponent) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports healthy once the listener is bound and until Drain.
func (sc *ServerComponent) Health(context.Context) component.Health {
	sc.server.mu.Lock()
	bound := sc.server.listener != nil
	sc.server.mu.Unlock()
	switch {
	case !bound:
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "HTTP server not listening"}
	case sc.server.draining.Load():
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "draining"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

// Describe returns the listen address for the startup log.
func (sc *ServerComponent) Describe() component.Description {
	return component.Description{
		Type:    "server",
		Details: fmt.Sprintf("%s:%d routes=%d", sc.server.config.Host, sc.server.config.Port, len(sc.server.engine.Routes())),
	}
}
