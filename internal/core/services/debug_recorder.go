package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

const debugEntryTTL = time.Hour

type ProcessedMetric struct {
	EventID       string  `json:"eventId"`
	EventName     string  `json:"eventName"`
	TotalCapacity int     `json:"totalCapacity"`
	TotalSold     int     `json:"totalSold"`
	PercentSold   float64 `json:"percentSold"`
}

type DebugEntry struct {
	Key       string            `json:"key"`
	Region    string            `json:"region"`
	Metrics   []ProcessedMetric `json:"metrics"`
	Timestamp time.Time         `json:"timestamp"`
}

// DebugRecorder keeps recent reconciliation metrics in the store for an
// hour so they can be inspected over HTTP.
type DebugRecorder struct {
	store  ports.KeyValueStore
	clock  clock.Clock
	logger *logrus.Logger
}

func NewDebugRecorder(store ports.KeyValueStore, clk clock.Clock, logger *logrus.Logger) *DebugRecorder {
	return &DebugRecorder{store: store, clock: clk, logger: logger}
}

func (r *DebugRecorder) RecordMetrics(ctx context.Context, region string, metrics []ProcessedMetric) {
	if r == nil || r.store == nil {
		return
	}
	now := r.clock.Now()
	entry := DebugEntry{
		Key:       fmt.Sprintf("debug:%s_metrics:%d", region, now.UnixMilli()),
		Region:    region,
		Metrics:   metrics,
		Timestamp: now,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		r.logger.WithError(err).Warn("debug entry not encodable")
		return
	}
	if err := r.store.Put(ctx, entry.Key, raw, debugEntryTTL); err != nil {
		r.logger.WithError(err).WithField("key", entry.Key).Warn("debug entry write failed")
	}
}

// Recent returns up to limit entries, newest first. An empty region lists
// every region.
func (r *DebugRecorder) Recent(ctx context.Context, region string, limit int) ([]DebugEntry, error) {
	if r == nil || r.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	prefix := "debug:"
	if region != "" {
		prefix = "debug:" + region + "_metrics:"
	}

	keys, err := r.store.ListPrefix(ctx, prefix, 0)
	if err != nil {
		return nil, fmt.Errorf("list debug entries: %w", err)
	}

	entries := make([]DebugEntry, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var entry DebugEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
