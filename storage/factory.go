package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/util"
)

// Factory builds a backend for one connection-string scheme.
type Factory func(ctx context.Context, conn ConnectionString, cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a backend factory for scheme. Backend packages
// call it from init.
func RegisterFactory(scheme string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[scheme] = f
}

// Schemes lists the registered schemes.
func Schemes() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for s := range factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// New validates cfg and builds the backend its connection string names.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn, err := ParseConnectionString(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	factoriesMu.RLock()
	f, ok := factories[conn.Scheme]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for scheme %q (registered: %v)", conn.Scheme, Schemes())
	}

	if log == nil {
		log = logger.NewNop()
	}
	l := log.WithComponent("storage").WithFields(logger.Fields(
		logger.FieldBackend, conn.Scheme,
		logger.FieldContainer, cfg.Container,
	))
	l.Info("initializing storage", logger.Fields(
		logger.FieldAccountName, util.MaskSecret(cfg.AccountName, 4),
	))
	return f(ctx, conn, cfg, l)
}
