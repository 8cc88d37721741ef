package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/srgjo27/inventory_monitor/internal/app"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/config"
	"github.com/srgjo27/inventory_monitor/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, envFile, region string
	var eventIDs []string
	var counts, poll bool

	flagSet := pflag.NewFlagSet("reconcile", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	flagSet.StringVarP(&region, "region", "r", "", "region of the events (default: the region configured with each event)")
	flagSet.StringSliceVarP(&eventIDs, "event", "e", nil, "event id to reconcile, repeatable (default: every configured event)")
	flagSet.BoolVar(&counts, "counts", false, "print sold counts per ticket name instead of availability")
	flagSet.BoolVar(&poll, "poll", false, "run one full poll, writing snapshots and publishing when enabled")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}

	// stdout carries the JSON result.
	log := logger.NewWithOutput(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	clk := clock.Real()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := app.OpenStore(ctx, cfg.Redis, clk, log)
	defer closeStore()

	deps := app.Dependencies{Config: cfg, Store: store, Logger: log, Clock: clk}
	if poll {
		sinks := app.OpenSinks(ctx, cfg, clk, log)
		defer sinks.Close()
		deps.Snapshots = sinks.Snapshots
		deps.Publisher = sinks.Publisher
	}
	monitor := app.BuildMonitor(deps)

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	if poll {
		summary, err := monitor.Poll(ctx)
		if err != nil {
			return err
		}
		return out.Encode(summary)
	}

	if len(eventIDs) == 0 {
		data, err := monitor.Dashboard(ctx, region)
		if err != nil {
			return err
		}
		return out.Encode(data)
	}

	var failed []error
	results := make([]any, 0, len(eventIDs))
	for _, id := range eventIDs {
		var result any
		var err error
		if counts {
			result, err = monitor.TicketTypeCounts(ctx, region, id)
		} else {
			result, err = monitor.EventAvailability(ctx, region, id, false)
		}
		if err != nil {
			if errors.Is(err, domain.ErrScrapeFailed) {
				log.WithError(err).WithField("event_id", id).Error("availability unknown")
			}
			failed = append(failed, fmt.Errorf("event %s: %w", id, err))
			continue
		}
		results = append(results, result)
	}

	if err := out.Encode(results); err != nil {
		return err
	}
	return errors.Join(failed...)
}
