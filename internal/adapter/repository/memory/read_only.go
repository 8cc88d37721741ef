package memory

import (
	"context"
	"time"

	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
)

// ReadOnly serves reads from an underlying store and rejects every write
// with domain.ErrReadOnly. Caches and the rate governor built on it degrade
// to misses and fail-open.
type ReadOnly struct {
	inner ports.KeyValueStore
}

func NewReadOnly(inner ports.KeyValueStore) *ReadOnly {
	return &ReadOnly{inner: inner}
}

func (r *ReadOnly) Get(ctx context.Context, key string) ([]byte, error) {
	return r.inner.Get(ctx, key)
}

func (r *ReadOnly) ListPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	return r.inner.ListPrefix(ctx, prefix, limit)
}

func (r *ReadOnly) Put(context.Context, string, []byte, time.Duration) error {
	return domain.ErrReadOnly
}

func (r *ReadOnly) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, domain.ErrReadOnly
}
