package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/retry"
)

type AvailabilityServiceProperty struct {
	Region            string
	Source            ports.TicketSource
	Fetcher           *Fetcher
	Engine            *Engine
	AvailabilityCache *ResultCache[domain.EventAvailability]
	ScrapeCache       *ResultCache[domain.ScrapeResult]
	Recorder          *DebugRecorder
	Tracker           *EventTracker
	Logger            *logrus.Logger
	Clock             clock.Clock
	Retry             retry.Policy
	// StatusFilter is passed to the ticket listing. Empty means
	// domain.SellableStatusFilter.
	StatusFilter string
}

// AvailabilityService reconciles the events of one region.
type AvailabilityService struct {
	region            string
	source            ports.TicketSource
	fetcher           *Fetcher
	engine            *Engine
	availabilityCache *ResultCache[domain.EventAvailability]
	scrapeCache       *ResultCache[domain.ScrapeResult]
	recorder          *DebugRecorder
	tracker           *EventTracker
	logger            *logrus.Logger
	clock             clock.Clock
	retry             retry.Policy
	statusFilter      string
}

func NewAvailabilityService(p AvailabilityServiceProperty) *AvailabilityService {
	if p.Clock == nil {
		p.Clock = clock.Real()
	}
	if p.Logger == nil {
		p.Logger = logrus.StandardLogger()
	}
	if p.Retry.MaxAttempts == 0 {
		p.Retry = retry.Default()
	}
	if p.StatusFilter == "" {
		p.StatusFilter = domain.SellableStatusFilter
	}
	if p.Engine == nil {
		p.Engine = NewEngine(domain.NewClassifier(domain.DefaultSecondaryMarkers...), p.Clock)
	}
	if p.Fetcher == nil {
		cfg := DefaultFetcherConfig()
		cfg.Retry = p.Retry
		p.Fetcher = NewFetcher(p.Source, cfg, p.Clock, p.Logger)
	}
	return &AvailabilityService{
		region:            p.Region,
		source:            p.Source,
		fetcher:           p.Fetcher,
		engine:            p.Engine,
		availabilityCache: p.AvailabilityCache,
		scrapeCache:       p.ScrapeCache,
		recorder:          p.Recorder,
		tracker:           p.Tracker,
		logger:            p.Logger,
		clock:             p.Clock,
		retry:             p.Retry,
		statusFilter:      p.StatusFilter,
	}
}

func (s *AvailabilityService) Region() string {
	return s.region
}

// Reconcile returns the availability of an event, served from the cache
// when a fresh entry exists. A fetch that yields no records fails with a
// *domain.ScrapeFailedError instead of reporting zero sales.
func (s *AvailabilityService) Reconcile(ctx context.Context, eventID string) (domain.EventAvailability, error) {
	log := s.logger.WithFields(logrus.Fields{
		"region":   s.region,
		"event_id": eventID,
		"run_id":   uuid.NewString(),
	})
	log.WithField("state", domain.StateIdle).Debug("reconciliation requested")

	if cached, ok := s.availabilityCache.Get(ctx, s.region, eventID); ok {
		log.Debug("availability served from cache")
		return cached, nil
	}

	availability, _, err := s.reconcileFresh(ctx, eventID, log)
	if err != nil {
		return domain.EventAvailability{}, err
	}
	s.availabilityCache.Put(ctx, s.region, eventID, availability)
	return availability, nil
}

func (s *AvailabilityService) reconcileFresh(ctx context.Context, eventID string, log *logrus.Entry) (domain.EventAvailability, domain.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		log.WithError(err).Error("event metadata unavailable")
		return domain.EventAvailability{}, domain.Event{}, fmt.Errorf("get event %s: %w", eventID, err)
	}
	s.tracker.Track(ctx, event, s.region, domain.SourcePolling)

	log.WithField("state", domain.StateFetching).Info("fetching ticket records")
	scrape, err := s.scrape(ctx, eventID)
	if err != nil {
		log.WithError(err).WithField("state", domain.StateFetchFailed).Error("scrape failed")
		return domain.EventAvailability{}, event, err
	}
	log.WithFields(logrus.Fields{
		"state":           domain.StateFetched,
		"total_fetched":   scrape.TotalFetched,
		"completion_rate": domain.Round2(scrape.CompletionRate),
	}).Info("ticket records fetched")

	log.WithField("state", domain.StateReconciling).Debug("reconciling")
	availability := s.engine.Reconcile(event, s.region, scrape)

	s.recorder.RecordMetrics(ctx, s.region, []ProcessedMetric{{
		EventID:       availability.EventID,
		EventName:     availability.EventName,
		TotalCapacity: availability.Totals.Capacity,
		TotalSold:     availability.Totals.Sold,
		PercentSold:   availability.Totals.PercentSold,
	}})

	log.WithFields(logrus.Fields{
		"state":        domain.StateDone,
		"capacity":     availability.Totals.Capacity,
		"sold":         availability.Totals.Sold,
		"available":    availability.Totals.Available,
		"status":       availability.Totals.Status,
		"incomplete":   availability.Scrape.Incomplete,
		"ticket_types": len(availability.TicketTypes),
	}).Info("reconciliation complete")
	return availability, event, nil
}

// EventAvailability reconciles an event, optionally adding a per-shop
// breakdown. Shop breakdowns are always computed fresh.
func (s *AvailabilityService) EventAvailability(ctx context.Context, eventID string, includeShops bool) (domain.EventAvailability, error) {
	if !includeShops {
		return s.Reconcile(ctx, eventID)
	}

	log := s.logger.WithFields(logrus.Fields{
		"region":   s.region,
		"event_id": eventID,
		"run_id":   uuid.NewString(),
	})
	availability, event, err := s.reconcileFresh(ctx, eventID, log)
	if err != nil {
		return domain.EventAvailability{}, err
	}
	s.availabilityCache.Put(ctx, s.region, eventID, availability)

	for _, shop := range event.Shops {
		sold, err := s.countTickets(ctx, ports.CountQuery{EventID: eventID, ShopID: shop.ID})
		if err != nil {
			log.WithError(err).WithField("shop_id", shop.ID).Warn("shop count unavailable")
			continue
		}
		percent := 0.0
		if availability.Totals.Sold > 0 {
			percent = domain.Round2(float64(sold) / float64(availability.Totals.Sold) * 100)
		}
		availability.Shops = append(availability.Shops, domain.ShopAvailability{
			ShopID:         shop.ID,
			ShopName:       shop.Name,
			Sold:           sold,
			PercentOfTotal: percent,
		})
	}
	return availability, nil
}

// TicketTypeAvailability reports a single ticket type using the upstream
// count instead of a full scrape.
func (s *AvailabilityService) TicketTypeAvailability(ctx context.Context, eventID, ticketTypeID string) (domain.TicketTypeAvailability, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return domain.TicketTypeAvailability{}, fmt.Errorf("get event %s: %w", eventID, err)
	}
	def, ok := event.TicketType(ticketTypeID)
	if !ok {
		return domain.TicketTypeAvailability{}, fmt.Errorf("%w: %s in event %s", domain.ErrTicketTypeNotFound, ticketTypeID, eventID)
	}

	sold, err := s.countTickets(ctx, ports.CountQuery{EventID: eventID, TicketTypeID: ticketTypeID})
	if err != nil {
		return domain.TicketTypeAvailability{}, fmt.Errorf("count tickets of type %s: %w", ticketTypeID, err)
	}
	return domain.NewTicketTypeAvailability(def, sold), nil
}

// TicketTypeCounts groups the primary sellable records of the latest scrape
// by ticket name.
func (s *AvailabilityService) TicketTypeCounts(ctx context.Context, eventID string) ([]domain.TicketTypeCount, error) {
	scrape, err := s.ScrapedTickets(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.engine.TicketTypeCounts(scrape), nil
}

// ScrapedTickets returns the latest scrape of an event, from the cache
// when a fresh one exists.
func (s *AvailabilityService) ScrapedTickets(ctx context.Context, eventID string) (domain.ScrapeResult, error) {
	return s.scrape(ctx, eventID)
}

func (s *AvailabilityService) scrape(ctx context.Context, eventID string) (domain.ScrapeResult, error) {
	if cached, ok := s.scrapeCache.Get(ctx, s.region, eventID); ok {
		return cached, nil
	}

	result := s.fetcher.FetchAll(ctx, eventID, s.statusFilter)
	if result.Failed() {
		return result, &domain.ScrapeFailedError{EventID: eventID, Cause: errors.New(result.AbortReason)}
	}
	if result.Trustworthy() {
		s.scrapeCache.Put(ctx, s.region, eventID, result)
	}
	return result, nil
}

func (s *AvailabilityService) getEvent(ctx context.Context, eventID string) (domain.Event, error) {
	var event domain.Event
	err := retry.Do(ctx, s.clock, s.retry, func(ctx context.Context, _ int) error {
		e, err := s.source.GetEvent(ctx, eventID)
		if err != nil {
			return classifyPageError(err)
		}
		event = e
		return nil
	})
	return event, err
}

func (s *AvailabilityService) countTickets(ctx context.Context, q ports.CountQuery) (int, error) {
	if q.Status == "" {
		q.Status = s.statusFilter
	}
	var n int
	err := retry.Do(ctx, s.clock, s.retry, func(ctx context.Context, _ int) error {
		count, err := s.source.CountTickets(ctx, q)
		if err != nil {
			return classifyPageError(err)
		}
		n = count
		return nil
	})
	return n, err
}

// IsNotFound reports errors that mean the requested resource does not
// exist upstream or in configuration.
func IsNotFound(err error) bool {
	if errors.Is(err, domain.ErrRegionNotFound) || errors.Is(err, domain.ErrTicketTypeNotFound) || errors.Is(err, domain.ErrNotFound) {
		return true
	}
	var upstream *domain.UpstreamError
	return errors.As(err, &upstream) && upstream.StatusCode == 404
}

func normalizeRegion(region string) string {
	return strings.ToLower(strings.TrimSpace(region))
}
