package gateway

import (
	"errors"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/storage"
)

// IsNotFound reports whether err means the requested object does not exist.
func IsNotFound(err error) bool {
	return apperrors.HasCode(err, apperrors.ErrCodeNotFound)
}

// mapError translates a backend failure of op into the gateway taxonomy.
// AppErrors pass through unchanged.
func mapError(op string, err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound("file", "").WithCause(err)
	case errors.Is(err, storage.ErrInvalidKey):
		return apperrors.InvalidInput("key", "the object key is not valid").WithCause(err)
	}
	switch op {
	case OpUpload:
		return apperrors.UploadFailed(err)
	case OpList, OpCount:
		return apperrors.ListFailed(err)
	default:
		return apperrors.Internal(err)
	}
}

// fail maps err and logs it. Server-side failures are logged at error
// level with the backend cause; client errors at debug.
func (g *Gateway) fail(op string, err error, fields map[string]any) *apperrors.AppError {
	appErr := mapError(op, err)
	f := logger.Fields(
		logger.FieldOperation, op,
		logger.FieldErrorCode, string(appErr.Code),
		logger.FieldError, err,
	)
	for k, v := range fields {
		f[k] = v
	}
	if appErr.HTTPStatus >= 500 {
		g.log.Error("storage operation failed", f)
	} else {
		g.log.Debug("storage operation rejected", f)
	}
	return appErr
}
