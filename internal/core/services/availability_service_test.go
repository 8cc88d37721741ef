package services_test

import (
	"context"
	"testing"

	"github.com/srgjo27/inventory_monitor/internal/adapter/repository/memory"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/core/ports/mocks"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	source  *mocks.TicketSource
	store   *memory.KVStore
	clock   *clock.FakeClock
	service *services.AvailabilityService
}

func newServiceFixture(t *testing.T, region string) serviceFixture {
	source := mocks.NewTicketSource(t)
	clk := fakeClock()
	store := memory.NewKVStore(clk)
	log := testLogger()

	svc := services.NewAvailabilityService(services.AvailabilityServiceProperty{
		Region:            region,
		Source:            source,
		Fetcher:           services.NewFetcher(source, testFetcherConfig(), clk, log),
		Engine:            services.NewEngine(domain.NewClassifier(), clk),
		AvailabilityCache: services.NewResultCache[domain.EventAvailability](store, services.AvailabilityCachePrefix, 0, clk, log),
		ScrapeCache:       services.NewResultCache[domain.ScrapeResult](store, services.ScrapeCachePrefix, 0, clk, log),
		Recorder:          services.NewDebugRecorder(store, clk, log),
		Tracker:           services.NewEventTracker(store, clk, log),
		Logger:            log,
		Clock:             clk,
		Retry:             testRetry(),
	})
	return serviceFixture{source: source, store: store, clock: clk, service: svc}
}

func (f serviceFixture) expectScrape(eventID string, rows []domain.TicketRecord) {
	f.source.On("ListTickets", mock.Anything, ports.TicketQuery{
		EventID: eventID, Top: 100, Skip: 0, Status: domain.SellableStatusFilter,
	}).Return(ports.TicketPage{Rows: rows, Total: len(rows)}, nil).Once()
}

func TestReconcile_ServesSecondRequestFromCache(t *testing.T) {
	f := newServiceFixture(t, "DACH")
	ctx := context.Background()

	f.source.On("GetEvent", mock.Anything, "ev1").Return(sampleEvent(), nil).Once()
	f.expectScrape("ev1", concat(
		tickets("Individual", 80, domain.TicketValid),
		tickets("Doubles", 10, domain.TicketValid),
	))

	first, err := f.service.Reconcile(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, 90, first.Totals.Sold)
	assert.Equal(t, 150, first.Totals.Capacity)

	second, err := f.service.Reconcile(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, first.Totals, second.Totals)

	entries, err := f.service.ScrapedTickets(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, 90, entries.TotalFetched)
}

func TestReconcile_RefreshesAfterTTL(t *testing.T) {
	f := newServiceFixture(t, "DACH")
	ctx := context.Background()

	f.source.On("GetEvent", mock.Anything, "ev1").Return(sampleEvent(), nil).Twice()
	f.expectScrape("ev1", tickets("Individual", 10, domain.TicketValid))
	f.expectScrape("ev1", tickets("Individual", 20, domain.TicketValid))

	first, err := f.service.Reconcile(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, 10, first.Totals.Sold)

	f.clock.Advance(services.DefaultCacheTTL)

	second, err := f.service.Reconcile(ctx, "ev1")
	require.NoError(t, err)
	assert.Equal(t, 20, second.Totals.Sold)
}

func TestReconcile_ScrapeFailedIsAnError(t *testing.T) {
	f := newServiceFixture(t, "DACH")
	ctx := context.Background()

	f.source.On("GetEvent", mock.Anything, "ev1").Return(sampleEvent(), nil).Once()
	f.source.On("ListTickets", mock.Anything, mock.Anything).
		Return(ports.TicketPage{}, &domain.UpstreamError{StatusCode: 500, Message: "internal"}).Times(3)

	got, err := f.service.Reconcile(ctx, "ev1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrScrapeFailed)
	var failed *domain.ScrapeFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "ev1", failed.EventID)
	assert.Empty(t, got.TicketTypes)

	_, cached := services.NewResultCache[domain.EventAvailability](f.store, services.AvailabilityCachePrefix, 0, f.clock, testLogger()).Get(ctx, "DACH", "ev1")
	assert.False(t, cached)
}

func TestReconcile_EventNotFound(t *testing.T) {
	f := newServiceFixture(t, "DACH")

	f.source.On("GetEvent", mock.Anything, "missing").
		Return(domain.Event{}, &domain.UpstreamError{StatusCode: 404, Message: "not found"}).Once()

	_, err := f.service.Reconcile(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, services.IsNotFound(err))
}

func TestTicketTypeAvailability(t *testing.T) {
	f := newServiceFixture(t, "DACH")
	ctx := context.Background()

	f.source.On("GetEvent", mock.Anything, "ev1").Return(sampleEvent(), nil)
	f.source.On("CountTickets", mock.Anything, ports.CountQuery{
		EventID: "ev1", TicketTypeID: "t2", Status: domain.SellableStatusFilter,
	}).Return(45, nil).Once()

	row, err := f.service.TicketTypeAvailability(ctx, "ev1", "t2")
	require.NoError(t, err)
	assert.Equal(t, 45, row.Sold)
	assert.Equal(t, 5, row.Available)
	assert.Equal(t, domain.StatusLimited, row.Status)

	_, err = f.service.TicketTypeAvailability(ctx, "ev1", "nope")
	assert.ErrorIs(t, err, domain.ErrTicketTypeNotFound)
}

func TestEventAvailability_WithShops(t *testing.T) {
	f := newServiceFixture(t, "DACH")
	ctx := context.Background()

	event := sampleEvent()
	event.Shops = []domain.Shop{{ID: "s1", Name: "Partner Shop"}, {ID: "s2", Name: "Club Shop"}}
	f.source.On("GetEvent", mock.Anything, "ev1").Return(event, nil).Once()
	f.expectScrape("ev1", tickets("Individual", 40, domain.TicketValid))
	f.source.On("CountTickets", mock.Anything, ports.CountQuery{
		EventID: "ev1", ShopID: "s1", Status: domain.SellableStatusFilter,
	}).Return(10, nil).Once()
	f.source.On("CountTickets", mock.Anything, ports.CountQuery{
		EventID: "ev1", ShopID: "s2", Status: domain.SellableStatusFilter,
	}).Return(0, &domain.UpstreamError{StatusCode: 403}).Once()

	got, err := f.service.EventAvailability(ctx, "ev1", true)

	require.NoError(t, err)
	require.Len(t, got.Shops, 1)
	assert.Equal(t, domain.ShopAvailability{ShopID: "s1", ShopName: "Partner Shop", Sold: 10, PercentOfTotal: 25}, got.Shops[0])
}

func TestTicketTypeCountsFromService(t *testing.T) {
	f := newServiceFixture(t, "DACH")

	f.expectScrape("ev1", concat(
		tickets("Doubles", 2, domain.TicketValid),
		tickets("Individual", 7, domain.TicketValid),
		tickets("Doubles - Athlete 2", 2, domain.TicketValid),
	))

	counts, err := f.service.TicketTypeCounts(context.Background(), "ev1")

	require.NoError(t, err)
	assert.Equal(t, []domain.TicketTypeCount{
		{Name: "Individual", SoldCount: 7},
		{Name: "Doubles", SoldCount: 2},
	}, counts)
}
