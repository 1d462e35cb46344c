package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/blobgate/component"
	"github.com/kbukum/blobgate/logger"
)

// Component owns the tracer and meter providers for the process lifetime.
type Component struct {
	svc ServiceInfo
	cfg Config
	log *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates the telemetry component.
func NewComponent(svc ServiceInfo, cfg Config, log *logger.Logger) *Component {
	return &Component{svc: svc, cfg: cfg, log: log.WithComponent("telemetry")}
}

// Name implements component.Component.
func (c *Component) Name() string { return "telemetry" }

// Start installs the enabled providers.
func (c *Component) Start(ctx context.Context) error {
	if c.cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, c.svc, c.cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		c.tp = tp
		c.log.Info("tracer initialized", logger.Fields(
			"endpoint", c.cfg.Tracing.Endpoint,
			"sample_rate", c.cfg.Tracing.SampleRate,
		))
	}
	if c.cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, c.svc, c.cfg.Metrics)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		c.mp = mp
		c.log.Info("meter initialized", logger.Fields(
			"endpoint", c.cfg.Metrics.Endpoint,
			"interval", c.cfg.Metrics.Interval.String(),
		))
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health implements component.Component. Exporter failures are retried by
// the SDK and never make the service unhealthy.
func (c *Component) Health(context.Context) component.Health {
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Type:    "telemetry",
		Details: fmt.Sprintf("tracing=%t metrics=%t", c.cfg.Tracing.Enabled, c.cfg.Metrics.Enabled),
	}
}
