package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/platform/clock"
)

type SnapshotRepository struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSnapshotRepository(db *sql.DB, clk clock.Clock) *SnapshotRepository {
	if clk == nil {
		clk = clock.Real()
	}
	return &SnapshotRepository{db: db, clock: clk}
}

// WriteSnapshot records the availability of every event in one transaction.
// All events of a run share the same snapshot time.
func (r *SnapshotRepository) WriteSnapshot(ctx context.Context, runID string, events []domain.EventAvailability) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	queryEvent := `
	INSERT INTO events (event_id, event_name, event_date, region, status, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (event_id)
	DO UPDATE SET
		event_name = EXCLUDED.event_name,
		event_date = EXCLUDED.event_date,
		region = EXCLUDED.region,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at
	`

	queryType := `
	INSERT INTO ticket_types (event_id, ticket_type_id, ticket_type_name)
	VALUES ($1, $2, $3)
	ON CONFLICT (event_id, ticket_type_id)
	DO UPDATE SET ticket_type_name = EXCLUDED.ticket_type_name
	`

	querySnapshot := `
	INSERT INTO event_snapshots (
		id, run_id, snapshot_time, event_id, total_capacity, total_sold,
		total_available, percent_sold, incomplete, completion_rate, last_updated
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	queryTypeSnapshot := `
	INSERT INTO ticket_type_snapshots (snapshot_id, event_id, ticket_type_id, capacity, sold, available)
	VALUES ($1, $2, $3, $4, $5, $6)
	`

	stmt, err := tx.PrepareContext(ctx, queryTypeSnapshot)
	if err != nil {
		return fmt.Errorf("failed to prepare ticket type snapshot statement: %w", err)
	}

	defer stmt.Close()

	now := r.clock.Now()
	for _, ev := range events {
		_, err = tx.ExecContext(ctx, queryEvent, ev.EventID, ev.EventName, ev.EventDate, ev.Region, string(ev.Totals.Status), now)
		if err != nil {
			return fmt.Errorf("failed to upsert event %s: %w", ev.EventID, err)
		}

		for _, tt := range ev.TicketTypes {
			if _, err := tx.ExecContext(ctx, queryType, ev.EventID, tt.ID, tt.Name); err != nil {
				return fmt.Errorf("failed to upsert ticket type %s: %w", tt.ID, err)
			}
		}

		snapshotID := uuid.New()
		_, err = tx.ExecContext(ctx, querySnapshot,
			snapshotID, runID, now, ev.EventID,
			ev.Totals.Capacity, ev.Totals.Sold, ev.Totals.Available, ev.Totals.PercentSold,
			ev.Scrape.Incomplete, ev.Scrape.CompletionRate, ev.LastUpdated)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot of event %s: %w", ev.EventID, err)
		}

		for _, tt := range ev.TicketTypes {
			if _, err := stmt.ExecContext(ctx, snapshotID, ev.EventID, tt.ID, tt.Capacity, tt.Sold, tt.Available); err != nil {
				return fmt.Errorf("failed to insert ticket type snapshot %s: %w", tt.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *SnapshotRepository) LastSnapshotTime(ctx context.Context, eventID string) (*time.Time, error) {
	query := `
	SELECT snapshot_time FROM event_snapshots
	WHERE event_id = $1
	ORDER BY snapshot_time DESC
	LIMIT 1
	`

	var t time.Time
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
