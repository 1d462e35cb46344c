package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/blobgate/errors"
)

// Operation is one traced and measured gateway call.
type Operation struct {
	name    string
	start   time.Time
	span    trace.Span
	metrics *Metrics
}

// StartOperation opens a span called name and starts the duration clock.
func StartOperation(ctx context.Context, name string, metrics *Metrics, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Operation{
		name:    name,
		start:   time.Now(),
		span:    span,
		metrics: metrics,
	}
}

// SetAttributes annotates the operation span.
func (o *Operation) SetAttributes(attrs ...attribute.KeyValue) {
	o.span.SetAttributes(attrs...)
}

// End closes the span and records metrics. A non-nil err marks the span as
// failed and is counted under its error code.
func (o *Operation) End(ctx context.Context, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		code := string(apperrors.ErrCodeInternal)
		if appErr, ok := apperrors.AsAppError(err); ok {
			code = string(appErr.Code)
		}
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, code)
		o.span.SetAttributes(attribute.String(AttrErrorCode, code))
		o.metrics.RecordError(ctx, o.name, code)
	}
	o.span.End()
	o.metrics.RecordOperation(ctx, o.name, status, time.Since(o.start))
}
