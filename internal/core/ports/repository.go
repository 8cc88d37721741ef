package ports

import (
	"context"
	"time"

	"github.com/srgjo27/inventory_monitor/internal/core/domain"
)

// KeyValueStore is the shared cache and counter backend. Get returns
// domain.ErrNotFound on a miss or an expired key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	ListPrefix(ctx context.Context, prefix string, limit int) ([]string, error)
	// Incr atomically increments the counter at key and returns the new
	// value. ttl is applied when the counter is created.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type TicketQuery struct {
	EventID string
	Top     int
	Skip    int
	Status  string
}

type TicketPage struct {
	Rows  []domain.TicketRecord
	Total int
}

type CountQuery struct {
	EventID      string
	TicketTypeID string
	ShopID       string
	Status       string
}

// TicketSource is the upstream ticketing platform of one region.
type TicketSource interface {
	ListTickets(ctx context.Context, q TicketQuery) (TicketPage, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
	CountTickets(ctx context.Context, q CountQuery) (int, error)
}

type RateGovernor interface {
	AwaitIfNeeded(ctx context.Context, key string) error
}

type SnapshotRepository interface {
	WriteSnapshot(ctx context.Context, runID string, events []domain.EventAvailability) error
	LastSnapshotTime(ctx context.Context, eventID string) (*time.Time, error)
}

type AvailabilityPublisher interface {
	Publish(ctx context.Context, availability domain.EventAvailability) error
}
