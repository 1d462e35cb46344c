package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobgate/gateway"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/server"
	"github.com/kbukum/blobgate/storage"
	"github.com/kbukum/blobgate/util"
)

const octetStream = "application/octet-stream"

// Download handles GET /storage/download/:fileName. The optional query
// parameter "folder" overrides the download folder. The response is always
// an attachment of type application/octet-stream.
func (h *Handler) Download(c *gin.Context) {
	d, err := h.gw.Open(c.Request.Context(), c.Query("folder"), c.Param("fileName"))
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	h.relay(c, d, octetStream, "attachment")
}

// Blob handles GET /storage/blob/*key?token=, the target of signed links
// issued by the local backend. The stored content type is kept.
func (h *Handler) Blob(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	d, err := h.gw.OpenSigned(c.Request.Context(), key, c.Query(storage.TokenParam))
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	ct := d.ContentType
	if ct == "" {
		ct = octetStream
	}
	h.relay(c, d, ct, "inline")
}

// relay copies d to the response and closes it. Once headers are out a
// failed copy can only be logged.
func (h *Handler) relay(c *gin.Context, d *gateway.Download, contentType, disposition string) {
	defer d.Close()

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", contentType)
	hdr.Set("Content-Disposition", fmt.Sprintf(`%s; filename="%s"`, disposition, util.HeaderFilename(d.Name)))
	if d.Size >= 0 {
		hdr.Set("Content-Length", strconv.FormatInt(d.Size, 10))
	}
	c.Status(http.StatusOK)

	n, err := io.Copy(c.Writer, d)
	if err != nil {
		f := logger.ErrorFields("relay", err)
		f[logger.FieldKey] = d.Key
		f[logger.FieldBytes] = n
		h.log.WithContext(c.Request.Context()).Warn("download interrupted", f)
		c.Abort()
	}
}
