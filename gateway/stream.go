package gateway

import (
	"context"
	"io"
	"sync"

	"github.com/kbukum/blobgate/observability"
)

// countingReader counts bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// meteredBody records the bytes read from body when it is closed. Close is
// idempotent.
type meteredBody struct {
	countingReader
	body    io.Closer
	ctx     context.Context
	metrics *observability.Metrics
	once    sync.Once
	err     error
}

func newMeteredBody(ctx context.Context, body io.ReadCloser, m *observability.Metrics) *meteredBody {
	return &meteredBody{
		countingReader: countingReader{r: body},
		body:           body,
		ctx:            context.WithoutCancel(ctx),
		metrics:        m,
	}
}

func (b *meteredBody) Close() error {
	b.once.Do(func() {
		b.err = b.body.Close()
		b.metrics.RecordBytes(b.ctx, "out", b.n)
	})
	return b.err
}
