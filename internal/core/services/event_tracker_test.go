package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srgjo27/inventory_monitor/internal/adapter/repository/memory"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports/mocks"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventTracker_DetectsSalesDateChanges(t *testing.T) {
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	tracker := services.NewEventTracker(store, clk, testLogger())
	ctx := context.Background()

	event := sampleEvent()
	event.SellStart = "2026-01-10T09:00:00Z"
	event.SellEnd = "2026-05-30T23:59:00Z"

	assert.Empty(t, tracker.Track(ctx, event, "DACH", domain.SourcePolling))
	assert.Empty(t, tracker.Track(ctx, event, "DACH", domain.SourcePolling))

	clk.Advance(time.Hour)
	event.SellEnd = "2026-05-25T23:59:00Z"
	changes := tracker.Track(ctx, event, "DACH", domain.SourceWebhook)

	require.Len(t, changes, 1)
	assert.Equal(t, "sellEnd", changes[0].Field)
	assert.Equal(t, "2026-05-30T23:59:00Z", changes[0].PreviousValue)
	assert.Equal(t, "2026-05-25T23:59:00Z", changes[0].NewValue)
	assert.Equal(t, domain.SourceWebhook, changes[0].Source)

	recent, err := tracker.RecentChanges(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "ev1", recent[0].EventID)
}

func TestEventTracker_StoreFailureYieldsNoChanges(t *testing.T) {
	store := mocks.NewKeyValueStore(t)
	tracker := services.NewEventTracker(store, fakeClock(), testLogger())

	store.On("Get", mock.Anything, "event_history:ev1").Return(nil, errors.New("timeout")).Once()

	assert.Empty(t, tracker.Track(context.Background(), sampleEvent(), "DACH", domain.SourcePolling))
}

func TestDebugRecorder_RecentNewestFirst(t *testing.T) {
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	recorder := services.NewDebugRecorder(store, clk, testLogger())
	ctx := context.Background()

	recorder.RecordMetrics(ctx, "DACH", []services.ProcessedMetric{{EventID: "ev1", TotalSold: 1}})
	clk.Advance(time.Minute)
	recorder.RecordMetrics(ctx, "DACH", []services.ProcessedMetric{{EventID: "ev1", TotalSold: 2}})
	clk.Advance(time.Minute)
	recorder.RecordMetrics(ctx, "FRANCE", []services.ProcessedMetric{{EventID: "ev9", TotalSold: 3}})

	dach, err := recorder.Recent(ctx, "DACH", 10)
	require.NoError(t, err)
	require.Len(t, dach, 2)
	assert.Equal(t, 2, dach[0].Metrics[0].TotalSold)
	assert.Equal(t, 1, dach[1].Metrics[0].TotalSold)

	all, err := recorder.Recent(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "FRANCE", all[0].Region)

	clk.Advance(59 * time.Minute)
	expired, err := recorder.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestDebugRecorder_RegionPrefixDoesNotLeak(t *testing.T) {
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	recorder := services.NewDebugRecorder(store, clk, testLogger())
	ctx := context.Background()

	recorder.RecordMetrics(ctx, "US", []services.ProcessedMetric{{EventID: "ev1"}})
	clk.Advance(time.Second)
	recorder.RecordMetrics(ctx, "US_EAST", []services.ProcessedMetric{{EventID: "ev2"}})

	entries, err := recorder.Recent(ctx, "US", 10)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "US", entries[0].Region)
}
