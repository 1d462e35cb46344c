package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/util"
)

const defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

// BodySizeLimit caps how much of the request body handlers can read. maxSize
// is a size string such as "100MB"; unparsable values fall back to 10MB.
// Reads past the cap fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// GinBodySizeLimit is BodySizeLimit for Gin. Requests that declare a
// Content-Length over the cap are answered with 413 before any handler runs;
// chunked bodies are cut off by the reader instead.
func GinBodySizeLimit(maxSize string) gin.HandlerFunc {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	limit := GinWrap(BodySizeLimit(maxSize))
	return func(c *gin.Context) {
		if c.Request.ContentLength > size {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, apperrors.TooLarge(size).ToResponse())
			return
		}
		limit(c)
	}
}
