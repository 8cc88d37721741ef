package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
	"github.com/srgjo27/inventory_monitor/internal/platform/retry"
)

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// ConnectAttempts bounds the connection attempts made at startup.
	ConnectAttempts int
}

func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

// NewPostgresDB opens the database and waits for it to accept connections.
func NewPostgresDB(ctx context.Context, cfg Config, logger *logrus.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 10
	}
	policy := retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   2 * time.Second,
		MaxDelay:    2 * time.Second,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.WithError(err).WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"of":      attempts,
				"wait":    delay.String(),
			}).Warn("database not ready yet")
		},
	}

	err = retry.Do(ctx, clock.Real(), policy, func(ctx context.Context, _ int) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, errors.Join(errors.New("database unreachable"), err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.WithField("host", cfg.Host).Info("database connected")
	return db, nil
}
