package app

import (
	"context"
	"database/sql"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/adapter/publisher"
	"github.com/srgjo27/inventory_monitor/internal/adapter/repository/memory"
	"github.com/srgjo27/inventory_monitor/internal/adapter/repository/postgres"
	"github.com/srgjo27/inventory_monitor/internal/adapter/repository/postgres/migrations"
	redisstore "github.com/srgjo27/inventory_monitor/internal/adapter/repository/redis"
	"github.com/srgjo27/inventory_monitor/internal/core/ports"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/config"
	"github.com/srgjo27/inventory_monitor/internal/platform/database"
)

// OpenStore connects to Redis, or falls back to an in-process store when
// Redis does not answer a ping. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg config.Redis, clk clock.Clock, logger *logrus.Logger) (ports.KeyValueStore, func()) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.WithError(err).WithField("addr", cfg.Addr).Warn("redis unreachable, using in-memory store")
		_ = client.Close()
		return memory.NewKVStore(clk), func() {}
	}

	logger.WithField("addr", cfg.Addr).Info("redis connected")
	return redisstore.NewKVStore(client), func() { _ = client.Close() }
}

type Sinks struct {
	Snapshots ports.SnapshotRepository
	Publisher ports.AvailabilityPublisher
	closers   []func()
}

func (s *Sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenSinks connects the enabled snapshot database and broker. A sink that
// cannot be reached is left nil and the monitor runs without it.
func OpenSinks(ctx context.Context, cfg config.Config, clk clock.Clock, logger *logrus.Logger) *Sinks {
	sinks := &Sinks{}

	if cfg.Database.Enabled {
		if db, err := openDatabase(ctx, cfg.Database, logger); err != nil {
			logger.WithError(err).Warn("snapshot database disabled")
		} else {
			sinks.Snapshots = postgres.NewSnapshotRepository(db, clk)
			sinks.closers = append(sinks.closers, func() { _ = db.Close() })
		}
	}

	if cfg.RabbitMQ.Enabled {
		pub, err := publisher.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, clk, logger)
		if err != nil {
			logger.WithError(err).Warn("availability publisher disabled")
		} else {
			sinks.Publisher = pub
			sinks.closers = append(sinks.closers, func() { _ = pub.Close() })
		}
	}
	return sinks
}

func openDatabase(ctx context.Context, cfg config.Database, logger *logrus.Logger) (*sql.DB, error) {
	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.Name,
		SSLMode:  cfg.SSLMode,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
