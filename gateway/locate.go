package gateway

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
)

// Locate returns the backend address of key when it exists, and "" with
// found false otherwise.
func (g *Gateway) Locate(ctx context.Context, key string) (_ string, found bool, err error) {
	ctx, op := observability.StartOperation(ctx, OpLocate, g.metrics,
		attribute.String(observability.AttrKey, key))
	defer func() { op.End(ctx, err) }()

	exists, err := g.store.Exists(ctx, key)
	if err != nil {
		return "", false, g.fail(OpLocate, err, logger.Fields(logger.FieldKey, key))
	}
	if !exists {
		return "", false, nil
	}
	return g.store.URL(key), true, nil
}

// Delete removes key. Removing a missing key succeeds.
func (g *Gateway) Delete(ctx context.Context, key string) (err error) {
	ctx, op := observability.StartOperation(ctx, OpDelete, g.metrics,
		attribute.String(observability.AttrKey, key))
	defer func() { op.End(ctx, err) }()

	if err := g.store.Delete(ctx, key); err != nil {
		return g.fail(OpDelete, err, logger.Fields(logger.FieldKey, key))
	}
	g.log.Info("file deleted", logger.Fields(logger.FieldKey, key))
	return nil
}
