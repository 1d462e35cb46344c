package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobgate/gateway"
	"github.com/kbukum/blobgate/server"
)

// CountResponse is the body of GET /storage/count/:folder.
type CountResponse struct {
	Folder string `json:"folder"`
	Count  int    `json:"count"`
}

// FilesResponse is the body of GET /storage/files/:folder.
type FilesResponse struct {
	Folder string                   `json:"folder"`
	Files  []gateway.ObjectMetadata `json:"files"`
}

// Count handles GET /storage/count/:folder.
func (h *Handler) Count(c *gin.Context) {
	folder := c.Param("folder")
	n, err := h.gw.Count(c.Request.Context(), folder)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, CountResponse{Folder: folder, Count: n})
}

// Files handles GET /storage/files/:folder. Every entry carries a signed
// read URL.
func (h *Handler) Files(c *gin.Context) {
	folder := c.Param("folder")
	files, err := h.gw.List(c.Request.Context(), folder)
	if err != nil {
		server.RespondWithError(c, h.log, err)
		return
	}
	server.RespondOK(c, FilesResponse{Folder: folder, Files: files})
}
