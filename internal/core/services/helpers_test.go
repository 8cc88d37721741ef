package services_test

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/logger"
	"github.com/srgjo27/inventory_monitor/internal/platform/retry"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testLogger() *logrus.Logger {
	return logger.Discard()
}

func fakeClock() *clock.FakeClock {
	return clock.Fake(epoch)
}

func testRetry() retry.Policy {
	p := retry.Default()
	p.Jitter = 0
	return p
}

func testFetcherConfig() services.FetcherConfig {
	cfg := services.DefaultFetcherConfig()
	cfg.Retry = testRetry()
	return cfg
}

func tickets(name string, n int, status domain.TicketStatus) []domain.TicketRecord {
	out := make([]domain.TicketRecord, n)
	for i := range out {
		out[i] = domain.TicketRecord{
			ID:         fmt.Sprintf("%s-%d", name, i),
			TicketName: name,
			Status:     status,
		}
	}
	return out
}

func concat(parts ...[]domain.TicketRecord) []domain.TicketRecord {
	var out []domain.TicketRecord
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func sampleEvent() domain.Event {
	return domain.Event{
		ID:    "ev1",
		Name:  "Hamburg Open",
		Start: "2026-06-01T08:00:00Z",
		TicketTypes: []domain.TicketTypeDefinition{
			{ID: "t1", Name: "Individual", Capacity: 100, Active: true},
			{ID: "t2", Name: "Doubles", Capacity: 50, Active: true},
			{ID: "t3", Name: "Team Member Pass", Capacity: 40, Active: true},
		},
	}
}
