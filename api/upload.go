package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/blobgate/errors"
	"github.com/kbukum/blobgate/gateway"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/server"
)

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload handles POST /storage/upload. The multipart field "file" carries
// the content; the optional form field "folder" overrides the upload folder.
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			server.RespondWithError(c, h.log, apperrors.TooLarge(tooLarge.Limit))
			return
		}
		server.RespondWithError(c, h.log, apperrors.Validation("File not provided").WithDetail("field", "file"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, h.log, apperrors.Internal(err))
		return
	}
	defer f.Close()

	size := fh.Size
	if size < 0 {
		size = -1
	}
	res, err := h.gw.UploadFile(c.Request.Context(), c.PostForm("folder"), fh.Filename, &gateway.Payload{
		Body:        f,
		Size:        size,
		ContentType: fh.Header.Get("Content-Type"),
	})
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}

	h.log.WithContext(c.Request.Context()).Debug("upload stored", logger.Fields(logger.FieldKey, res.Key))
	server.RespondOK(c, UploadResponse{URL: res.URL})
}
