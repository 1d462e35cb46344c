package gateway

import (
	"errors"
	"strings"
	"time"

	"github.com/kbukum/blobgate/logger"
	"github.com/kbukum/blobgate/observability"
	"github.com/kbukum/blobgate/storage"
)

// Operation names, used for spans, metrics and log fields.
const (
	OpUpload   = "gateway.upload"
	OpList     = "gateway.list"
	OpCount    = "gateway.count"
	OpDownload = "gateway.download"
	OpLocate   = "gateway.locate"
	OpDelete   = "gateway.delete"
)

// Gateway runs storage operations against one backend container. It is
// stateless per call and safe for concurrent use.
type Gateway struct {
	store   storage.Storage
	signer  *Signer
	cfg     Config
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l.WithComponent("gateway")
		}
	}
}

// WithMetrics records operation metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock replaces time.Now for token issuance.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New builds a Gateway. It fails when the credential is missing or cfg is
// invalid, which callers treat as a startup error.
func New(store storage.Storage, cred *Credential, cfg Config, opts ...Option) (*Gateway, error) {
	if store == nil {
		return nil, errors.New("gateway: storage backend is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	signer, err := NewSigner(cred, store, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	g := &Gateway{
		store:  store,
		signer: signer,
		cfg:    cfg,
		log:    logger.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Signer returns the token signer.
func (g *Gateway) Signer() *Signer { return g.signer }

// Config returns the effective configuration.
func (g *Gateway) Config() Config { return g.cfg }

// Container names the backend container.
func (g *Gateway) Container() string { return g.store.Container() }

// folderPrefix normalizes folder to end with exactly one "/".
func folderPrefix(folder string) string {
	return strings.TrimRight(folder, "/") + "/"
}
