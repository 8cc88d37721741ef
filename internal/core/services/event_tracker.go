package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

const (
	eventHistoryTTL = 365 * 24 * time.Hour
	salesChangeTTL  = 30 * 24 * time.Hour
)

// EventTracker detects changes to an event's sales window between
// observations.
type EventTracker struct {
	store  ports.KeyValueStore
	clock  clock.Clock
	logger *logrus.Logger
}

func NewEventTracker(store ports.KeyValueStore, clk clock.Clock, logger *logrus.Logger) *EventTracker {
	return &EventTracker{store: store, clock: clk, logger: logger}
}

// Track stores the latest history of event and returns the sales date
// changes since the previous observation. Store failures yield no changes.
func (t *EventTracker) Track(ctx context.Context, event domain.Event, region string, source domain.ChangeSource) []domain.SalesDateChange {
	if t == nil || t.store == nil {
		return nil
	}
	log := t.logger.WithFields(logrus.Fields{"event_id": event.ID, "region": region})
	historyKey := "event_history:" + event.ID
	now := t.clock.Now()

	var previous *domain.EventHistory
	raw, err := t.store.Get(ctx, historyKey)
	switch {
	case err == nil:
		var h domain.EventHistory
		if jsonErr := json.Unmarshal(raw, &h); jsonErr == nil {
			previous = &h
		}
	case !errors.Is(err, domain.ErrNotFound):
		log.WithError(err).Warn("event history read failed")
		return nil
	}

	var changes []domain.SalesDateChange
	if previous != nil {
		fields := []struct {
			name     string
			old, new string
		}{
			{"sellStart", previous.SellStart, event.SellStart},
			{"sellEnd", previous.SellEnd, event.SellEnd},
		}
		for _, f := range fields {
			if f.old == f.new {
				continue
			}
			changes = append(changes, domain.SalesDateChange{
				EventID:       event.ID,
				EventName:     event.Name,
				Region:        region,
				Field:         f.name,
				PreviousValue: f.old,
				NewValue:      f.new,
				ChangedAt:     now,
				Source:        source,
			})
		}
	}

	history := domain.EventHistory{
		EventID:   event.ID,
		EventName: event.Name,
		Region:    region,
		SellStart: event.SellStart,
		SellEnd:   event.SellEnd,
		Status:    event.Status,
		LastSeen:  now,
	}
	if raw, err := json.Marshal(history); err == nil {
		if err := t.store.Put(ctx, historyKey, raw, eventHistoryTTL); err != nil {
			log.WithError(err).Warn("event history write failed")
		}
	}

	for i, c := range changes {
		key := fmt.Sprintf("sales_change:%s:%d_%d", c.EventID, now.UnixMilli(), i)
		raw, err := json.Marshal(c)
		if err != nil {
			continue
		}
		if err := t.store.Put(ctx, key, raw, salesChangeTTL); err != nil {
			log.WithError(err).Warn("sales change write failed")
		}
		log.WithFields(logrus.Fields{
			"field": c.Field,
			"from":  c.PreviousValue,
			"to":    c.NewValue,
		}).Info("sales date changed")
	}
	return changes
}

func (t *EventTracker) RecentChanges(ctx context.Context, limit int) ([]domain.SalesDateChange, error) {
	if t == nil || t.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	keys, err := t.store.ListPrefix(ctx, "sales_change:", 0)
	if err != nil {
		return nil, fmt.Errorf("list sales changes: %w", err)
	}

	changes := make([]domain.SalesDateChange, 0, len(keys))
	for _, key := range keys {
		raw, err := t.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var c domain.SalesDateChange
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].ChangedAt.After(changes[j].ChangedAt)
	})
	if len(changes) > limit {
		changes = changes[:limit]
	}
	return changes, nil
}
