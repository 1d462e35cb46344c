package gateway

import (
	"context"
	"errors"
	"io"
	"path"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/storage"
	"github.com/kbukum/blobgate/validation"
)

// Download is an open object stream. The caller must Close it on every
// path; closing twice is safe.
type Download struct {
	io.ReadCloser
	// Key is the full object key.
	Key string
	// Name is the last key segment.
	Name string
	// Size is the content length, or -1 if unknown.
	Size int64
	// ContentType is the stored content type, if any.
	ContentType string
}

// Open streams fileName from folder, which defaults to the configured
// download folder. A missing object, including one deleted between the
// existence check and the read, is a NotFound error.
func (g *Gateway) Open(ctx context.Context, folder, fileName string) (*Download, error) {
	if folder == "" {
		folder = g.cfg.DownloadFolder
	}
	err := validation.New().
		Folder("folder", folder).
		FileName("fileName", fileName).
		Validate()
	if err != nil {
		return nil, err
	}
	return g.open(ctx, folderPrefix(folder)+fileName, true)
}

// OpenSigned streams key after checking that token grants read access to
// it. Only backends that blobgate serves itself verify tokens; for the
// others every key is reported missing.
func (g *Gateway) OpenSigned(ctx context.Context, key, token string) (*Download, error) {
	v, ok := g.store.(storage.TokenVerifier)
	if !ok || !storage.ValidKey(key) {
		return nil, apperrors.NotFound("file", "")
	}
	if err := v.VerifyToken(g.signer.cred, key, token, g.now()); err != nil {
		g.log.Debug("signed link rejected", logger.Fields(logger.FieldKey, key, logger.FieldError, err))
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken()
	}
	// the token proves the object existed when signed; skip the extra probe
	return g.open(ctx, key, false)
}

func (g *Gateway) open(ctx context.Context, key string, probe bool) (_ *Download, err error) {
	ctx, op := observability.StartOperation(ctx, OpDownload, g.metrics,
		attribute.String(observability.AttrKey, key))
	defer func() { op.End(ctx, err) }()

	name := path.Base(key)
	fields := logger.Fields(logger.FieldKey, key)

	if probe {
		exists, eerr := g.store.Exists(ctx, key)
		if eerr != nil {
			return nil, g.fail(OpDownload, eerr, fields)
		}
		if !exists {
			return nil, apperrors.NotFound("file", name)
		}
	}

	obj, derr := g.store.Download(ctx, key)
	switch {
	case errors.Is(derr, storage.ErrNotFound):
		g.log.Debug("object vanished before download", fields)
		return nil, apperrors.NotFound("file", name)
	case derr != nil:
		return nil, g.fail(OpDownload, derr, fields)
	case obj == nil || obj.Body == nil:
		return nil, apperrors.NotFound("file", name)
	}

	size := obj.Info.Size
	if size <= 0 {
		size = -1
	}
	op.SetAttributes(attribute.Int64(observability.AttrBytes, size))
	return &Download{
		ReadCloser:  newMeteredBody(ctx, obj.Body, g.metrics),
		Key:         key,
		Name:        name,
		Size:        size,
		ContentType: obj.Info.ContentType,
	}, nil
}
