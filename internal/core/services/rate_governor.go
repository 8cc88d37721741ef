package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 100, Window: 60 * time.Second}
}

// RateGovernor caps outbound requests per upstream account using fixed
// windows counted in the shared store. When the store is unavailable it
// lets requests through.
type RateGovernor struct {
	store  ports.KeyValueStore
	cfg    RateLimitConfig
	clock  clock.Clock
	logger *logrus.Logger
}

func NewRateGovernor(store ports.KeyValueStore, cfg RateLimitConfig, clk clock.Clock, logger *logrus.Logger) *RateGovernor {
	def := DefaultRateLimitConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	// Windows are counted in whole milliseconds.
	cfg.Window = max(cfg.Window, time.Millisecond)
	return &RateGovernor{
		store:  store,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
	}
}

func (g *RateGovernor) windowKey(key string, now time.Time) string {
	return fmt.Sprintf("rate_limit:%s:%d", key, now.UnixMilli()/g.cfg.Window.Milliseconds())
}

// untilNextWindow returns the time left in the window containing now.
func (g *RateGovernor) untilNextWindow(now time.Time) time.Duration {
	window := g.cfg.Window.Milliseconds()
	return time.Duration(window-now.UnixMilli()%window) * time.Millisecond
}

// AwaitIfNeeded blocks until the current window has capacity for one more
// request under key. It only returns an error when ctx is done.
func (g *RateGovernor) AwaitIfNeeded(ctx context.Context, key string) error {
	if g == nil || g.store == nil {
		return nil
	}

	for {
		now := g.clock.Now()
		count, err := g.store.Incr(ctx, g.windowKey(key, now), g.cfg.Window)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			g.logger.WithError(err).WithField("key", key).Warn("rate limiter store unavailable, allowing request")
			return nil
		}
		if count <= int64(g.cfg.Limit) {
			return nil
		}

		wait := g.untilNextWindow(now)
		g.logger.WithFields(logrus.Fields{
			"key":   key,
			"count": count,
			"limit": g.cfg.Limit,
			"wait":  wait.String(),
		}).Info("rate limit reached, waiting for next window")
		if err := g.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining reports the requests left in the current window. A failing
// store reports the full budget.
func (g *RateGovernor) Remaining(ctx context.Context, key string) int {
	if g == nil || g.store == nil {
		return g.limitOrDefault()
	}
	raw, err := g.store.Get(ctx, g.windowKey(key, g.clock.Now()))
	if err != nil {
		return g.cfg.Limit
	}
	var used int
	if _, err := fmt.Sscan(string(raw), &used); err != nil {
		return g.cfg.Limit
	}
	return max(0, g.cfg.Limit-used)
}

func (g *RateGovernor) limitOrDefault() int {
	if g == nil {
		return DefaultRateLimitConfig().Limit
	}
	return g.cfg.Limit
}
