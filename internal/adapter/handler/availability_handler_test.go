package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/srgjo27/inventory_monitor/internal/adapter/handler"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/srgjo27/inventory_monitor/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonitor struct {
	availability domain.EventAvailability
	err          error
	lastRegion   string
	lastShops    bool
}

func (f *fakeMonitor) Regions() []string { return []string{"DACH"} }

func (f *fakeMonitor) EventAvailability(_ context.Context, region, eventID string, includeShops bool) (domain.EventAvailability, error) {
	f.lastRegion, f.lastShops = region, includeShops
	return f.availability, f.err
}

func (f *fakeMonitor) TicketTypeAvailability(_ context.Context, region, eventID, ticketTypeID string) (domain.TicketTypeAvailability, error) {
	if f.err != nil {
		return domain.TicketTypeAvailability{}, f.err
	}
	for _, row := range f.availability.TicketTypes {
		if row.ID == ticketTypeID {
			return row, nil
		}
	}
	return domain.TicketTypeAvailability{}, domain.ErrTicketTypeNotFound
}

func (f *fakeMonitor) TicketTypeCounts(context.Context, string, string) ([]domain.TicketTypeCount, error) {
	return []domain.TicketTypeCount{{Name: "Individual", SoldCount: 7}}, f.err
}

func (f *fakeMonitor) Dashboard(context.Context, string) (domain.DashboardData, error) {
	return domain.DashboardData{Events: []domain.EventAvailability{f.availability}}, f.err
}

func (f *fakeMonitor) LastPoll(context.Context) (*domain.PollSummary, error) {
	return &domain.PollSummary{RunID: "run-1", Reconciled: 2}, nil
}

func (f *fakeMonitor) RecentDebug(context.Context, string, int) ([]services.DebugEntry, error) {
	return nil, nil
}

func (f *fakeMonitor) RecentChanges(context.Context, int) ([]domain.SalesDateChange, error) {
	return []domain.SalesDateChange{{EventID: "ev1", Field: "sellEnd"}}, nil
}

func serve(t *testing.T, monitor handler.Monitor, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	handler.NewAvailabilityHandler(monitor, logger.Discard()).Register(e)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleAvailability() domain.EventAvailability {
	return domain.EventAvailability{
		EventID:   "ev1",
		EventName: "Hamburg Open",
		TicketTypes: []domain.TicketTypeAvailability{
			{ID: "t1", Name: "Individual", Capacity: 100, Sold: 20, Available: 80, Status: domain.StatusAvailable},
		},
	}
}

func TestGetAvailability(t *testing.T) {
	monitor := &fakeMonitor{availability: sampleAvailability()}

	rec := serve(t, monitor, "/api/availability/ev1?region=dach&includeShops=true")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hamburg Open", decode(t, rec)["eventName"])
	assert.Equal(t, "dach", monitor.lastRegion)
	assert.True(t, monitor.lastShops)
}

func TestGetTicketTypeAvailability(t *testing.T) {
	monitor := &fakeMonitor{availability: sampleAvailability()}

	rec := serve(t, monitor, "/api/availability/ev1/t1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, monitor, "/api/availability/ev1/t9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTicketTypeCounts(t *testing.T) {
	rec := serve(t, &fakeMonitor{}, "/api/availability/ev1/counts")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ev1", body["eventId"])
	assert.Len(t, body["counts"], 1)
}

func TestScrapeFailedIsBadGateway(t *testing.T) {
	monitor := &fakeMonitor{err: fmt.Errorf("reconcile ev1: %w", &domain.ScrapeFailedError{EventID: "ev1"})}

	rec := serve(t, monitor, "/api/availability/ev1")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "scrape_failed", body["error"])
	assert.Equal(t, "ev1", body["eventId"])
}

func TestErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown region", domain.ErrRegionNotFound, http.StatusNotFound},
		{"upstream 404", &domain.UpstreamError{StatusCode: 404}, http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", &domain.UpstreamError{StatusCode: 401}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeMonitor{err: tt.err}, "/api/dashboard/data")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestStatusIncludesLastPoll(t *testing.T) {
	rec := serve(t, &fakeMonitor{}, "/status")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"DACH"}, body["regions"])
	assert.Equal(t, "run-1", body["lastPoll"].(map[string]any)["runId"])
}

func TestGetSalesChanges(t *testing.T) {
	rec := serve(t, &fakeMonitor{}, "/api/changes?limit=5")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["items"], 1)
}
