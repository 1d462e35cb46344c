package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/logger"
)

// RespondWithError renders err as the standard error envelope. AppErrors keep
// their status; anything else is logged and becomes a generic 500.
func RespondWithError(c *gin.Context, log *logger.Logger, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		if log != nil {
			log.WithContext(c.Request.Context()).WithError(err).
				Error("unhandled error", logger.Fields("path", c.Request.URL.Path))
		}
		appErr = apperrors.Internal(err)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// RespondOK sends a 200 JSON response.
func RespondOK(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}
