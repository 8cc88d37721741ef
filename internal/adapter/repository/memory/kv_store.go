// Package memory holds an in-process KeyValueStore used when Redis is not
// reachable and in tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

type KVStore struct {
	mu    sync.Mutex
	items map[string]item
	clock clock.Clock
}

func NewKVStore(clk clock.Clock) *KVStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &KVStore{items: make(map[string]item), clock: clk}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if it.expired(s.clock.Now()) {
		delete(s.items, key)
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(it.value))
	copy(out, it.value)
	return out, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.items[key] = item{value: stored, expiresAt: s.expiry(ttl)}
	return nil
}

// ListPrefix returns live keys with prefix in lexical order. limit <= 0
// means no limit.
func (s *KVStore) ListPrefix(ctx context.Context, prefix string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var keys []string
	for k, it := range s.items {
		if it.expired(now) {
			delete(s.items, k)
			continue
		}
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *KVStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok || it.expired(s.clock.Now()) {
		it = item{expiresAt: s.expiry(ttl)}
	}

	var n int64
	if len(it.value) > 0 {
		parsed, err := strconv.ParseInt(string(it.value), 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n++
	it.value = []byte(strconv.FormatInt(n, 10))
	s.items[key] = it
	return n, nil
}

func (s *KVStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.clock.Now().Add(ttl)
}
