// Package app assembles the monitor from configuration.
package app

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/adapter/ticketing"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/config"
	"github.com/srgjo27/inventory_monitor/internal/platform/retry"
)

type Dependencies struct {
	Config    config.Config
	Store     ports.KeyValueStore
	Snapshots ports.SnapshotRepository
	Publisher ports.AvailabilityPublisher
	Logger    *logrus.Logger
	Clock     clock.Clock
	// HTTPClient is shared by every region's ticketing client. Nil uses a
	// client with the configured timeout.
	HTTPClient *http.Client
}

// BuildMonitor creates one availability service per enabled region. All
// regions share the store, so rate counters and cache entries are global.
func BuildMonitor(d Dependencies) *services.Monitor {
	cfg := d.Config
	clk := d.Clock
	if clk == nil {
		clk = clock.Real()
	}

	governor := services.NewRateGovernor(d.Store, services.RateLimitConfig{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	}, clk, d.Logger)
	classifier := domain.NewClassifier(append(append([]string{}, domain.DefaultSecondaryMarkers...), cfg.SecondaryMarkers...)...)
	engine := services.NewEngine(classifier, clk)
	recorder := services.NewDebugRecorder(d.Store, clk, d.Logger)
	tracker := services.NewEventTracker(d.Store, clk, d.Logger)
	availabilityCache := services.NewResultCache[domain.EventAvailability](d.Store, services.AvailabilityCachePrefix, cfg.CacheTTL, clk, d.Logger)
	scrapeCache := services.NewResultCache[domain.ScrapeResult](d.Store, services.ScrapeCachePrefix, cfg.CacheTTL, clk, d.Logger)

	policy := retry.Default()
	fetcherCfg := services.DefaultFetcherConfig()
	if cfg.Fetcher.BatchSize > 0 {
		fetcherCfg.InitialBatchSize = cfg.Fetcher.BatchSize
	}
	if cfg.Fetcher.MinBatchSize > 0 {
		fetcherCfg.MinBatchSize = cfg.Fetcher.MinBatchSize
	}
	if cfg.Fetcher.PageDelay > 0 {
		fetcherCfg.PageDelay = cfg.Fetcher.PageDelay
	}

	var regions []services.MonitoredRegion
	for _, r := range cfg.EnabledRegions() {
		client := ticketing.NewClient(ticketing.ClientConfig{
			Region:     r.Name,
			BaseURL:    r.BaseURL,
			Credential: r.Credential,
			Timeout:    cfg.Fetcher.Timeout,
		}, governor, d.Logger, d.HTTPClient)

		svc := services.NewAvailabilityService(services.AvailabilityServiceProperty{
			Region:            r.Name,
			Source:            client,
			Fetcher:           services.NewFetcher(client, fetcherCfg, clk, d.Logger),
			Engine:            engine,
			AvailabilityCache: availabilityCache,
			ScrapeCache:       scrapeCache,
			Recorder:          recorder,
			Tracker:           tracker,
			Logger:            d.Logger,
			Clock:             clk,
			Retry:             policy,
		})
		regions = append(regions, services.MonitoredRegion{Service: svc, EventIDs: r.EventIDs})
	}

	return services.NewMonitor(services.MonitorProperty{
		Regions:   regions,
		Snapshots: d.Snapshots,
		Publisher: d.Publisher,
		Store:     d.Store,
		Recorder:  recorder,
		Tracker:   tracker,
		Workers:   cfg.Workers,
		Logger:    d.Logger,
		Clock:     clk,
	})
}
