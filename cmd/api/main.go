package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"

	"github.com/srgjo27/inventory_monitor/internal/adapter/handler"
	"github.com/srgjo27/inventory_monitor/internal/app"
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
	var configPath, envFile, port string
	var noPoller bool

	flagSet := pflag.NewFlagSet("api", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	flagSet.StringVar(&port, "port", "", "HTTP port (overrides app.port)")
	flagSet.BoolVar(&noPoller, "no-poller", false, "serve requests without the background poller")
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
	if port != "" {
		cfg.App.Port = port
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.LogFormat)
	clk := clock.Real()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore := app.OpenStore(ctx, cfg.Redis, clk, log)
	defer closeStore()

	sinks := app.OpenSinks(ctx, cfg, clk, log)
	defer sinks.Close()

	monitor := app.BuildMonitor(app.Dependencies{
		Config:    cfg,
		Store:     store,
		Snapshots: sinks.Snapshots,
		Publisher: sinks.Publisher,
		Logger:    log,
		Clock:     clk,
	})
	log.WithField("regions", monitor.Regions()).Info("monitor ready")

	if !noPoller {
		go monitor.RunPoller(ctx, cfg.PollInterval)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	handler.NewAvailabilityHandler(monitor, log).Register(e)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      e,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server startup failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}
