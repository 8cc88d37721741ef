package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

const (
	DefaultCacheTTL = 5 * time.Minute

	AvailabilityCachePrefix = "availability"
	ScrapeCachePrefix       = "scraped_tickets"
)

type CacheEntry[T any] struct {
	Data      T         `json:"data"`
	CachedAt  time.Time `json:"cachedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ResultCache keeps the latest result per event for a fixed TTL. It is
// best-effort: store failures are logged and reported as misses.
type ResultCache[T any] struct {
	store  ports.KeyValueStore
	prefix string
	ttl    time.Duration
	clock  clock.Clock
	logger *logrus.Logger
}

func NewResultCache[T any](store ports.KeyValueStore, prefix string, ttl time.Duration, clk clock.Clock, logger *logrus.Logger) *ResultCache[T] {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache[T]{
		store:  store,
		prefix: prefix,
		ttl:    ttl,
		clock:  clk,
		logger: logger,
	}
}

func (c *ResultCache[T]) Key(region, eventID string) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, region, eventID)
}

func (c *ResultCache[T]) Get(ctx context.Context, region, eventID string) (T, bool) {
	var zero T
	if c == nil || c.store == nil {
		return zero, false
	}

	key := c.Key(region, eventID)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return zero, false
	}

	var entry CacheEntry[T]
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache entry unreadable")
		return zero, false
	}
	if !c.clock.Now().Before(entry.ExpiresAt) {
		return zero, false
	}
	return entry.Data, true
}

func (c *ResultCache[T]) Put(ctx context.Context, region, eventID string, value T) {
	if c == nil || c.store == nil {
		return
	}

	now := c.clock.Now()
	entry := CacheEntry[T]{
		Data:      value,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	key := c.Key(region, eventID)

	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache entry not encodable")
		return
	}
	if err := c.store.Put(ctx, key, raw, c.ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("cache write failed")
		return
	}
	c.logger.WithFields(logrus.Fields{
		"key":        key,
		"expires_at": entry.ExpiresAt.Format(time.RFC3339),
	}).Debug("cached result")
}
