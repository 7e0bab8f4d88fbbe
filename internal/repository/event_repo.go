package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/attendance-api/internal/database"
	"github.com/attendance-api/internal/models"
)

// eventRepo is the concrete implementation of EventRepository
type eventRepo struct {
	db *database.DB
}

// NewEventRepo creates a new event repository
func NewEventRepo(db *database.DB) EventRepository {
	return &eventRepo{db: db}
}

const eventColumns = `id, name, description, type, scheduled_at, scheduled_day, barcode, shared_barcode, is_active, created_at`

// GetByID retrieves an event by ID
func (r *eventRepo) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
}

// FindSharedInWindow returns the most recent active event spawned from
// sharedBarcode and scheduled within [start, end)
func (r *eventRepo) FindSharedInWindow(ctx context.Context, sharedBarcode string, start, end time.Time) (*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE shared_barcode = $1
			AND scheduled_at >= $2
			AND scheduled_at < $3
			AND is_active
		ORDER BY scheduled_at DESC
		LIMIT 1
	`
	return scanEvent(r.db.Conn(ctx).QueryRowContext(ctx, query, sharedBarcode, start, end))
}

// FindActiveByBarcode returns the active event whose individual barcode or
// shared barcode equals barcode, preferring the most recently scheduled one
func (r *eventRepo) FindActiveByBarcode(ctx context.Context, barcode string) (*models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE (barcode = $1 OR shared_barcode = $1) AND is_active
		ORDER BY (barcode = $1) DESC, scheduled_at DESC
		LIMIT 1
	`
	return scanEvent(r.db.Conn(ctx).QueryRowContext(ctx, query, barcode))
}

// CreateShared inserts a materialized daily event. It reports false without
// error when an active event already exists for the same shared barcode and day.
func (r *eventRepo) CreateShared(ctx context.Context, event *models.Event) (bool, error) {
	query := `
		INSERT INTO events (id, name, description, type, scheduled_at, scheduled_day, barcode, shared_barcode, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, TRUE, $9)
		ON CONFLICT (shared_barcode, scheduled_day) WHERE shared_barcode IS NOT NULL AND is_active
		DO NOTHING
		RETURNING id
	`
	var id string
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		event.ID, event.Name, event.Description, event.Type, event.ScheduledAt,
		dateParam(event.ScheduledDay), event.Barcode, event.SharedBarcode, event.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("insert shared event: %w", err)
	}
	event.Active = true
	return true, nil
}

func scanEvent(row *sql.Row) (*models.Event, error) {
	var event models.Event
	var sharedBarcode sql.NullString

	err := row.Scan(
		&event.ID, &event.Name, &event.Description, &event.Type, &event.ScheduledAt,
		&event.ScheduledDay, &event.Barcode, &sharedBarcode, &event.Active, &event.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}

	if sharedBarcode.Valid {
		event.SharedBarcode = &sharedBarcode.String
	}
	return &event, nil
}
