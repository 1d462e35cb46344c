package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/blobgate/api"
	"github.com/kbukum/blobgate/component"
	"github.com/kbukum/blobgate/gateway"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/storage"
	"github.com/kbukum/blobgate/util"
)

// gatewayComponent builds the gateway once storage is up and mounts the
// /storage routes before the HTTP server starts listening.
type gatewayComponent struct {
	cfg     gateway.Config
	storage *storage.Component
	cred    func() (*gateway.Credential, error)
	router  gin.IRouter
	log     *logger.Logger

	gw *gateway.Gateway
}

var (
	_ component.Component   = (*gatewayComponent)(nil)
	_ component.Describable = (*gatewayComponent)(nil)
)

func (c *gatewayComponent) Name() string { return "gateway" }

func (c *gatewayComponent) Start(context.Context) error {
	if c.gw != nil {
		return nil
	}
	store := c.storage.Storage()
	if store == nil {
		return errors.New("gateway: storage component not started")
	}
	cred, err := c.cred()
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return fmt.Errorf("gateway metrics: %w", err)
	}
	gw, err := gateway.New(store, cred, c.cfg,
		gateway.WithLogger(c.log),
		gateway.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	api.NewHandler(gw, c.log).Register(c.router)
	c.gw = gw

	eff := gw.Config()
	c.log.WithComponent("gateway").Info("gateway ready", logger.Fields(
		logger.FieldContainer, gw.Container(),
		logger.FieldAccountName, util.MaskSecret(cred.AccountName(), 4),
		"upload_folder", eff.UploadFolder,
		"download_folder", eff.DownloadFolder,
		"token_ttl", eff.TokenTTL.String(),
	))
	return nil
}

// Stop keeps the gateway; routes cannot be unmounted from a Gin engine.
func (c *gatewayComponent) Stop(context.Context) error { return nil }

func (c *gatewayComponent) Health(context.Context) component.Health {
	if c.gw == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "gateway not initialized"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *gatewayComponent) Describe() component.Description {
	cfg := c.cfg
	if c.gw != nil {
		cfg = c.gw.Config()
	}
	return component.Description{
		Type:    "gateway",
		Details: fmt.Sprintf("upload=%s download=%s token_ttl=%s", cfg.UploadFolder, cfg.DownloadFolder, cfg.TokenTTL),
	}
}
