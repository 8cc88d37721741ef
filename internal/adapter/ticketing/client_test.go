package ticketing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/srgjo27/inventory_monitor/internal/adapter/ticketing"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGovernor struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (g *recordingGovernor) AwaitIfNeeded(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, key)
	return g.err
}

func newClient(t *testing.T, handler http.HandlerFunc, governor ports.RateGovernor) *ticketing.Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return ticketing.NewClient(ticketing.ClientConfig{
		Region:     "DACH",
		BaseURL:    srv.URL + "/",
		Credential: "secret",
	}, governor, logger.Discard(), nil)
}

func TestListTickets(t *testing.T) {
	governor := &recordingGovernor{}
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tickets", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "ev1", r.URL.Query().Get("event"))
		assert.Equal(t, "100", r.URL.Query().Get("top"))
		assert.Equal(t, "200", r.URL.Query().Get("skip"))
		assert.Equal(t, domain.SellableStatusFilter, r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rows":[
			{"_id":"a","ticketName":"Individual","name":"Jo","status":"valid","createdAt":"2026-02-01T10:00:00.123Z","realPrice":89.5},
			{"_id":"b","ticketName":"Doubles","status":"DETAILSREQUIRED","createdAt":"not a date"}
		],"total":205}`))
	}, governor)

	page, err := client.ListTickets(context.Background(), ports.TicketQuery{
		EventID: "ev1", Top: 100, Skip: 200, Status: domain.SellableStatusFilter,
	})

	require.NoError(t, err)
	assert.Equal(t, 205, page.Total)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, domain.TicketValid, page.Rows[0].Status)
	assert.Equal(t, "Jo", page.Rows[0].HolderName)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 123000000, time.UTC), page.Rows[0].CreatedAt)
	assert.True(t, page.Rows[1].CreatedAt.IsZero())
	assert.Equal(t, []string{"DACH"}, governor.keys)
}

func TestGetEvent(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events/ev1", r.URL.Path)
		assert.Equal(t, "tickets", r.URL.Query().Get("include"))
		_, _ = w.Write([]byte(`{"_id":"ev1","name":"Hamburg Open","sellEnd":"2026-05-30T23:59:00Z",
			"tickets":[{"_id":"t1","name":"Individual","amount":100,"active":true}]}`))
	}, nil)

	event, err := client.GetEvent(context.Background(), "ev1")

	require.NoError(t, err)
	assert.Equal(t, "Hamburg Open", event.Name)
	assert.Equal(t, "2026-05-30T23:59:00Z", event.SellEnd)
	require.Len(t, event.TicketTypes, 1)
	assert.Equal(t, 100, event.TicketTypes[0].Capacity)
}

func TestCountTickets(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("top"))
		assert.Equal(t, domain.SellableStatusFilter, q.Get("status"))
		assert.Equal(t, "t2", q.Get("ticketTypeId"))
		assert.Equal(t, "s1", q.Get("underShopId"))
		_, _ = w.Write([]byte(`{"rows":[{"_id":"x"}],"total":42}`))
	}, nil)

	n, err := client.CountTickets(context.Background(), ports.CountQuery{EventID: "ev1", TicketTypeID: "t2", ShopID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		transient bool
	}{
		{"unauthorized", http.StatusUnauthorized, "invalid token", false},
		{"not found", http.StatusNotFound, "no such event", false},
		{"rate limited", http.StatusTooManyRequests, "slow down", true},
		{"server error", http.StatusInternalServerError, "boom", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			_, err := client.GetEvent(context.Background(), "ev1")

			var upstream *domain.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, tt.status, upstream.StatusCode)
			assert.Equal(t, tt.body, upstream.Message)
			assert.Equal(t, tt.transient, upstream.Transient())
		})
	}
}

func TestOverloadedIsSentinel(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, nil)

	_, err := client.ListTickets(context.Background(), ports.TicketQuery{EventID: "ev1", Top: 100})

	assert.ErrorIs(t, err, domain.ErrUpstreamOverloaded)
}

func TestMalformedBody(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}, nil)

	_, err := client.ListTickets(context.Background(), ports.TicketQuery{EventID: "ev1", Top: 100})

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.True(t, upstream.Transient())
}

func TestTruncatedPageIsRetriedByFetcher(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			_, _ = w.Write([]byte(`{"rows":[{"_id":"a"`))
			return
		}
		_, _ = w.Write([]byte(`{"rows":[{"_id":"a","ticketName":"Individual","status":"VALID"}],"total":1}`))
	}, nil)

	cfg := services.DefaultFetcherConfig()
	cfg.Retry.Jitter = 0
	clk := clock.Fake(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	fetcher := services.NewFetcher(client, cfg, clk, logger.Discard())

	result := fetcher.FetchAll(context.Background(), "ev1", domain.SellableStatusFilter)

	mu.Lock()
	assert.Equal(t, 2, calls)
	mu.Unlock()
	assert.Equal(t, 1, result.TotalFetched)
	assert.False(t, result.Aborted)
	assert.False(t, result.Failed())
	assert.Equal(t, []time.Duration{time.Second}, clk.Sleeps())
}

func TestGovernorErrorStopsRequest(t *testing.T) {
	called := false
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, &recordingGovernor{err: context.Canceled})

	_, err := client.GetEvent(context.Background(), "ev1")

	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}
