package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

const (
	lastPollKey      = "last_poll_summary"
	lastPollTTL      = 24 * time.Hour
	defaultWorkers   = 4
	defaultPollEvery = 15 * time.Minute
)

// MonitoredRegion binds a region's service to the events polled for it.
type MonitoredRegion struct {
	Service  *AvailabilityService
	EventIDs []string
}

type MonitorProperty struct {
	Regions []MonitoredRegion
	// Snapshots and Publisher are optional sinks fed by Poll.
	Snapshots ports.SnapshotRepository
	Publisher ports.AvailabilityPublisher
	Store     ports.KeyValueStore
	Recorder  *DebugRecorder
	Tracker   *EventTracker
	Workers   int
	Logger    *logrus.Logger
	Clock     clock.Clock
}

// Monitor reconciles the configured events of every region.
type Monitor struct {
	regions   []MonitoredRegion
	snapshots ports.SnapshotRepository
	publisher ports.AvailabilityPublisher
	store     ports.KeyValueStore
	recorder  *DebugRecorder
	tracker   *EventTracker
	workers   int
	logger    *logrus.Logger
	clock     clock.Clock
}

func NewMonitor(p MonitorProperty) *Monitor {
	if p.Workers <= 0 {
		p.Workers = defaultWorkers
	}
	if p.Clock == nil {
		p.Clock = clock.Real()
	}
	if p.Logger == nil {
		p.Logger = logrus.StandardLogger()
	}
	return &Monitor{
		regions:   p.Regions,
		snapshots: p.Snapshots,
		publisher: p.Publisher,
		store:     p.Store,
		recorder:  p.Recorder,
		tracker:   p.Tracker,
		workers:   p.Workers,
		logger:    p.Logger,
		clock:     p.Clock,
	}
}

func (m *Monitor) Regions() []string {
	names := make([]string, 0, len(m.regions))
	for _, r := range m.regions {
		names = append(names, r.Service.Region())
	}
	return names
}

// ServiceFor resolves the service that owns eventID. An empty region picks
// the region configured with the event, falling back to the first region.
func (m *Monitor) ServiceFor(region, eventID string) (*AvailabilityService, error) {
	if len(m.regions) == 0 {
		return nil, fmt.Errorf("%w: no regions configured", domain.ErrRegionNotFound)
	}

	want := normalizeRegion(region)
	if want != "" {
		for _, r := range m.regions {
			if normalizeRegion(r.Service.Region()) == want {
				return r.Service, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRegionNotFound, region)
	}

	for _, r := range m.regions {
		if slices.Contains(r.EventIDs, eventID) {
			return r.Service, nil
		}
	}
	return m.regions[0].Service, nil
}

func (m *Monitor) EventAvailability(ctx context.Context, region, eventID string, includeShops bool) (domain.EventAvailability, error) {
	svc, err := m.ServiceFor(region, eventID)
	if err != nil {
		return domain.EventAvailability{}, err
	}
	return svc.EventAvailability(ctx, eventID, includeShops)
}

func (m *Monitor) TicketTypeAvailability(ctx context.Context, region, eventID, ticketTypeID string) (domain.TicketTypeAvailability, error) {
	svc, err := m.ServiceFor(region, eventID)
	if err != nil {
		return domain.TicketTypeAvailability{}, err
	}
	return svc.TicketTypeAvailability(ctx, eventID, ticketTypeID)
}

func (m *Monitor) TicketTypeCounts(ctx context.Context, region, eventID string) ([]domain.TicketTypeCount, error) {
	svc, err := m.ServiceFor(region, eventID)
	if err != nil {
		return nil, err
	}
	return svc.TicketTypeCounts(ctx, eventID)
}

func (m *Monitor) RecentDebug(ctx context.Context, region string, limit int) ([]DebugEntry, error) {
	return m.recorder.Recent(ctx, region, limit)
}

func (m *Monitor) RecentChanges(ctx context.Context, limit int) ([]domain.SalesDateChange, error) {
	return m.tracker.RecentChanges(ctx, limit)
}

type reconcileJob struct {
	service *AvailabilityService
	eventID string
}

// Dashboard reconciles every configured event of region, or of all regions
// when region is empty. Events that fail are listed in Failed.
func (m *Monitor) Dashboard(ctx context.Context, region string) (domain.DashboardData, error) {
	var jobs []reconcileJob
	want := normalizeRegion(region)
	matched := false
	for _, r := range m.regions {
		if want != "" && normalizeRegion(r.Service.Region()) != want {
			continue
		}
		matched = true
		for _, id := range r.EventIDs {
			jobs = append(jobs, reconcileJob{service: r.Service, eventID: id})
		}
	}
	if want != "" && !matched {
		return domain.DashboardData{}, fmt.Errorf("%w: %s", domain.ErrRegionNotFound, region)
	}

	results := make([]*domain.EventAvailability, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, m.workers)
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job reconcileJob) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-sem }()

			availability, err := job.service.Reconcile(ctx, job.eventID)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = &availability
		}(i, job)
	}
	wg.Wait()

	data := domain.DashboardData{LastRefresh: m.clock.Now()}
	for i, job := range jobs {
		if errs[i] != nil {
			m.logger.WithError(errs[i]).WithFields(logrus.Fields{
				"region":   job.service.Region(),
				"event_id": job.eventID,
			}).Warn("event left out of dashboard")
			data.Failed = append(data.Failed, job.eventID)
			continue
		}
		data.Events = append(data.Events, *results[i])
	}
	data.Summary = domain.Summarize(data.Events)
	return data, nil
}

// Poll reconciles every configured event and forwards the results to the
// snapshot repository and publisher. Sink failures do not fail the poll.
func (m *Monitor) Poll(ctx context.Context) (domain.PollSummary, error) {
	summary := domain.PollSummary{
		RunID:     uuid.NewString(),
		StartedAt: m.clock.Now(),
	}
	log := m.logger.WithField("run_id", summary.RunID)
	log.Info("poll started")

	data, err := m.Dashboard(ctx, "")
	if err != nil {
		return summary, err
	}
	summary.Reconciled = len(data.Events)
	summary.Failed = data.Failed
	for _, ev := range data.Events {
		if ev.Scrape.Incomplete {
			summary.Incomplete = append(summary.Incomplete, ev.EventID)
		}
	}

	if m.snapshots != nil && len(data.Events) > 0 {
		if err := m.snapshots.WriteSnapshot(ctx, summary.RunID, data.Events); err != nil {
			log.WithError(err).Warn("snapshot write failed")
		} else {
			summary.SnapshotSent = true
		}
	}

	if m.publisher != nil {
		for _, ev := range data.Events {
			if err := m.publisher.Publish(ctx, ev); err != nil {
				log.WithError(err).WithField("event_id", ev.EventID).Warn("availability publish failed")
				continue
			}
			summary.Published++
		}
	}

	summary.FinishedAt = m.clock.Now()
	m.storeSummary(ctx, summary)

	log.WithFields(logrus.Fields{
		"reconciled": summary.Reconciled,
		"failed":     len(summary.Failed),
		"incomplete": len(summary.Incomplete),
		"published":  summary.Published,
		"elapsed":    summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("poll finished")
	return summary, nil
}

func (m *Monitor) storeSummary(ctx context.Context, summary domain.PollSummary) {
	if m.store == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := m.store.Put(ctx, lastPollKey, raw, lastPollTTL); err != nil {
		m.logger.WithError(err).Warn("poll summary write failed")
	}
}

// LastPoll returns the summary of the most recent poll, or nil when none
// is recorded.
func (m *Monitor) LastPoll(ctx context.Context) (*domain.PollSummary, error) {
	if m.store == nil {
		return nil, nil
	}
	raw, err := m.store.Get(ctx, lastPollKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read poll summary: %w", err)
	}
	var summary domain.PollSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode poll summary: %w", err)
	}
	return &summary, nil
}

// RunPoller polls once immediately and then every interval until ctx is
// done.
func (m *Monitor) RunPoller(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultPollEvery
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.WithField("interval", interval.String()).Info("background poller started")

	m.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("background poller stopped")
			return
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context) {
	if _, err := m.Poll(ctx); err != nil {
		m.logger.WithError(err).Error("poll failed")
	}
}
