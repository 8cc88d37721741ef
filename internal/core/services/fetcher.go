package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/retry"
)

type FetcherConfig struct {
	InitialBatchSize int
	MinBatchSize     int
	PageDelay        time.Duration
	Retry            retry.Policy
}

func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		InitialBatchSize: 100,
		MinBatchSize:     10,
		PageDelay:        200 * time.Millisecond,
		Retry:            retry.Default(),
	}
}

// Fetcher pages through the ticket listing of one event. Pages are fetched
// strictly in order: the total is only known after the first page.
type Fetcher struct {
	source ports.TicketSource
	cfg    FetcherConfig
	clock  clock.Clock
	logger *logrus.Logger
}

func NewFetcher(source ports.TicketSource, cfg FetcherConfig, clk clock.Clock, logger *logrus.Logger) *Fetcher {
	if cfg.InitialBatchSize <= 0 {
		cfg.InitialBatchSize = 100
	}
	if cfg.MinBatchSize <= 0 || cfg.MinBatchSize > cfg.InitialBatchSize {
		cfg.MinBatchSize = min(10, cfg.InitialBatchSize)
	}
	return &Fetcher{
		source: source,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

// FetchAll retrieves every ticket record of an event. It does not fail: when
// a page exhausts its retries the records accumulated so far are returned
// with Aborted set, and callers judge the result by its completion rate.
func (f *Fetcher) FetchAll(ctx context.Context, eventID, statusFilter string) domain.ScrapeResult {
	log := f.logger.WithField("event_id", eventID)
	log.Info("starting ticket scrape")

	tickets := make([]domain.TicketRecord, 0, f.cfg.InitialBatchSize)
	skip := 0
	batchSize := f.cfg.InitialBatchSize
	expected := -1
	calls := 0
	var abortErr error

	for {
		var page ports.TicketPage
		overloaded := 0

		policy := f.cfg.Retry
		policy.OnRetry = func(attempt int, err error, delay time.Duration) {
			log.WithError(err).WithFields(logrus.Fields{
				"skip":    skip,
				"attempt": attempt + 1,
				"wait":    delay.String(),
			}).Warn("page request failed, backing off")

			if !errors.Is(err, domain.ErrUpstreamOverloaded) {
				return
			}
			overloaded++
			if overloaded > 1 && batchSize > f.cfg.MinBatchSize {
				batchSize = max(f.cfg.MinBatchSize, batchSize/2)
				log.WithField("batch_size", batchSize).Info("reducing batch size after repeated 503s")
			}
		}

		err := retry.Do(ctx, f.clock, policy, func(ctx context.Context, attempt int) error {
			calls++
			started := f.clock.Now()
			p, err := f.source.ListTickets(ctx, ports.TicketQuery{
				EventID: eventID,
				Top:     batchSize,
				Skip:    skip,
				Status:  statusFilter,
			})
			if err != nil {
				return classifyPageError(err)
			}
			page = p
			log.WithFields(logrus.Fields{
				"skip":       skip,
				"batch_size": batchSize,
				"rows":       len(p.Rows),
				"elapsed":    f.clock.Now().Sub(started).String(),
			}).Debug("page fetched")
			return nil
		})
		if err != nil {
			abortErr = err
			log.WithError(err).WithFields(logrus.Fields{
				"skip":    skip,
				"fetched": len(tickets),
			}).Error("page retries exhausted, stopping scrape")
			break
		}

		if expected < 0 {
			expected = page.Total
			log.WithField("expected_total", expected).Info("expected ticket total recorded")
		}

		for _, row := range page.Rows {
			if row.EventID == "" {
				row.EventID = eventID
			}
			tickets = append(tickets, row)
		}

		log.WithFields(logrus.Fields{
			"fetched":  len(tickets),
			"expected": expected,
			"progress": domain.Round2(domain.CompletionRate(len(tickets), expected)),
		}).Info("scrape progress")

		if len(page.Rows) == 0 {
			break
		}
		if expected > 0 && len(tickets) >= expected {
			break
		}

		skip += len(page.Rows)

		if err := f.clock.Sleep(ctx, f.cfg.PageDelay); err != nil {
			abortErr = err
			break
		}
	}

	result := domain.NewScrapeResult(eventID, tickets, max(expected, 0), f.clock.Now())
	if abortErr != nil {
		result.Aborted = true
		result.AbortReason = abortErr.Error()
	}

	entry := log.WithFields(logrus.Fields{
		"total_fetched":   result.TotalFetched,
		"expected_total":  result.ExpectedTotal,
		"completion_rate": domain.Round2(result.CompletionRate),
		"api_calls":       calls,
	})
	if result.Incomplete() {
		entry.Warn("scrape finished incomplete")
	} else {
		entry.Info("scrape complete")
	}
	return result
}

func classifyPageError(err error) error {
	if errors.Is(err, domain.ErrUpstreamOverloaded) {
		return err
	}
	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.Transient() {
			return err
		}
		return retry.Permanent(err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Permanent(err)
	}
	return err
}
