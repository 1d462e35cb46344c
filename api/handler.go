// Package api exposes the gateway over HTTP: upload, listing, counting and
// download routes under /storage.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobgate/gateway"
	"github.com/kbukum/blobgate/logger"
)

// Handler serves the /storage routes.
type Handler struct {
	gw  *gateway.Gateway
	log *logger.Logger
}

// NewHandler returns a Handler backed by gw.
func NewHandler(gw *gateway.Gateway, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{gw: gw, log: log.WithComponent("api")}
}

// Register mounts the storage routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/storage")
	g.POST("/upload", h.Upload)
	g.GET("/count/:folder", h.Count)
	g.GET("/files/:folder", h.Files)
	g.GET("/download/:fileName", h.Download)
	g.GET("/blob/*key", h.Blob)
}
