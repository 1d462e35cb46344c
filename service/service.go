// Package service assembles blobgate: telemetry, the storage backend, the
// gateway and the HTTP server, registered in start order on a bootstrap App.
package service

import (
	"context"

	"github.com/kbukum/blobgate/bootstrap"
	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/server"
	"github.com/kbukum/blobgate/storage"
)

// App is the assembled blobgate application.
type App struct {
	*bootstrap.App[*Config]

	// Server is exposed for tests and embedding.
	Server *server.Server
}

// New validates cfg and registers every component. Nothing starts until
// Run or Start.
func New(cfg *Config, opts ...bootstrap.Option) (*App, error) {
	cfg.ApplyDefaults()
	opts = append([]bootstrap.Option{bootstrap.WithGracefulTimeout(cfg.ShutdownTimeout)}, opts...)
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}
	log := app.Logger

	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(cfg.Name, app.Components.HealthAll)

	store := storage.NewComponent(cfg.Storage, log)
	svc := observability.ServiceInfo{Name: cfg.Name, Version: cfg.Version, Environment: cfg.Environment}
	if err := app.RegisterComponent(observability.NewComponent(svc, cfg.Telemetry, log)); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(store); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(&gatewayComponent{
		cfg:     cfg.Gateway,
		storage: store,
		cred:    cfg.Storage.Credential,
		router:  srv.Engine(),
		log:     log,
	}); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}

	app.OnReady(func(context.Context) error {
		log.Info("blobgate ready", logger.Fields(
			"addr", srv.Addr(),
			"storage", store.Describe().Details,
		))
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		srv.Drain(ctx)
		return nil
	})

	return &App{App: app, Server: srv}, nil
}
