package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srgjo27/inventory_monitor/internal/adapter/repository/memory"
	"github.com/srgjo27/inventory_monitor/internal/core/ports/mocks"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRateGovernor_FailsOpenWhenStoreUnavailable(t *testing.T) {
	store := mocks.NewKeyValueStore(t)
	clk := fakeClock()
	governor := services.NewRateGovernor(store, services.DefaultRateLimitConfig(), clk, testLogger())

	store.On("Incr", mock.Anything, mock.AnythingOfType("string"), 60*time.Second).
		Return(int64(0), errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))

	for i := 0; i < 3; i++ {
		require.NoError(t, governor.AwaitIfNeeded(context.Background(), "DACH"))
	}
	assert.Empty(t, clk.Sleeps())
}

func TestRateGovernor_WaitsForNextWindow(t *testing.T) {
	clk := clock.Fake(time.Unix(120, 0))
	store := memory.NewKVStore(clk)
	governor := services.NewRateGovernor(store, services.RateLimitConfig{Limit: 2, Window: time.Minute}, clk, testLogger())
	ctx := context.Background()

	require.NoError(t, governor.AwaitIfNeeded(ctx, "DACH"))
	clk.Advance(15 * time.Second)
	require.NoError(t, governor.AwaitIfNeeded(ctx, "DACH"))
	assert.Equal(t, 0, governor.Remaining(ctx, "DACH"))

	require.NoError(t, governor.AwaitIfNeeded(ctx, "DACH"))

	assert.Equal(t, []time.Duration{45 * time.Second}, clk.Sleeps())
	assert.Equal(t, time.Unix(180, 0).UTC(), clk.Now())
	assert.Equal(t, 1, governor.Remaining(ctx, "DACH"))
}

func TestRateGovernor_KeysAreIndependent(t *testing.T) {
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	governor := services.NewRateGovernor(store, services.RateLimitConfig{Limit: 1, Window: time.Minute}, clk, testLogger())
	ctx := context.Background()

	require.NoError(t, governor.AwaitIfNeeded(ctx, "DACH"))
	require.NoError(t, governor.AwaitIfNeeded(ctx, "FRANCE"))

	assert.Empty(t, clk.Sleeps())
	assert.Equal(t, 0, governor.Remaining(ctx, "DACH"))
	assert.Equal(t, 1, governor.Remaining(ctx, "ITALY"))
}

func TestRateGovernor_CancelledWhileWaiting(t *testing.T) {
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	governor := services.NewRateGovernor(store, services.RateLimitConfig{Limit: 1, Window: time.Minute}, clk, testLogger())

	require.NoError(t, governor.AwaitIfNeeded(context.Background(), "DACH"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, governor.AwaitIfNeeded(ctx, "DACH"), context.Canceled)
}

func TestRateGovernor_SubMillisecondWindowIsClamped(t *testing.T) {
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	governor := services.NewRateGovernor(store, services.RateLimitConfig{Limit: 1, Window: 500 * time.Microsecond}, clk, testLogger())
	ctx := context.Background()

	require.NotPanics(t, func() {
		require.NoError(t, governor.AwaitIfNeeded(ctx, "DACH"))
		require.NoError(t, governor.AwaitIfNeeded(ctx, "DACH"))
	})
	assert.Equal(t, []time.Duration{time.Millisecond}, clk.Sleeps())
}
