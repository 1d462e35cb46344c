package gateway

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/storage"
)

// Payload is the content of one upload.
type Payload struct {
	Body io.Reader
	// Size is the length of Body in bytes, or -1 if unknown.
	Size int64
	// ContentType is forwarded to the backend when set.
	ContentType string
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload writes p under key and returns the backend address of the object.
// The address is not signed.
func (g *Gateway) Upload(ctx context.Context, p *Payload, key string) (_ string, err error) {
	ctx, op := observability.StartOperation(ctx, OpUpload, g.metrics,
		attribute.String(observability.AttrKey, key),
		attribute.String(observability.AttrContainer, g.store.Container()),
	)
	defer func() { op.End(ctx, err) }()

	if p == nil || p.Body == nil || p.Size == 0 {
		return "", apperrors.Validation("File not provided").WithDetail("field", "file")
	}
	if !storage.ValidKey(key) {
		return "", apperrors.InvalidInput("key", "the object key is not valid")
	}

	body := &countingReader{r: p.Body}
	err = g.store.Upload(ctx, key, body, storage.PutOptions{
		ContentType: p.ContentType,
		Size:        p.Size,
		IfNotExists: true,
	})
	if err != nil {
		return "", g.fail(OpUpload, err, logger.Fields(logger.FieldKey, key))
	}
	if body.n == 0 {
		// a Size of -1 hid an empty payload; do not keep it
		if derr := g.store.Delete(ctx, key); derr != nil {
			g.log.Warn("could not remove empty upload", logger.Fields(logger.FieldKey, key, logger.FieldError, derr))
		}
		return "", apperrors.Validation("File not provided").WithDetail("field", "file")
	}

	op.SetAttributes(attribute.Int64(observability.AttrBytes, body.n))
	g.metrics.RecordBytes(ctx, "in", body.n)
	g.log.Info("file uploaded", logger.Fields(logger.FieldKey, key, logger.FieldBytes, body.n))
	return g.store.URL(key), nil
}

// UploadFile stores p under a fresh key in folder, which defaults to the
// configured upload folder.
func (g *Gateway) UploadFile(ctx context.Context, folder, filename string, p *Payload) (UploadResult, error) {
	if folder == "" {
		folder = g.cfg.UploadFolder
	}
	if err := validateFolder(folder); err != nil {
		return UploadResult{}, err
	}
	key := GenerateKey(folder, filename)
	u, err := g.Upload(ctx, p, key)
	if err != nil {
		return UploadResult{}, err
	}
	return UploadResult{Key: key, URL: u}, nil
}
