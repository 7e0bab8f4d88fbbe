package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/attendance-api/internal/database"
	"github.com/attendance-api/internal/models"
)

// attendanceRepo is the concrete implementation of AttendanceRepository
type attendanceRepo struct {
	db *database.DB
}

// NewAttendanceRepo creates a new attendance repository
func NewAttendanceRepo(db *database.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

const attendanceViewQuery = `
	SELECT a.id, a.user_id, u.name, u.barcode_id, a.event_id, e.name, e.type, e.scheduled_at,
		e.shared_barcode, etb.display_name, a.status, a.timestamp
	FROM attendance a
	JOIN users u ON u.id = a.user_id
	JOIN events e ON e.id = a.event_id
	LEFT JOIN event_type_barcodes etb ON etb.barcode = e.shared_barcode
`

// Create inserts an attendance row. A row already present for the same
// user, dedup scope and day yields ErrDuplicate.
func (r *attendanceRepo) Create(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance (id, user_id, event_id, status, timestamp, attendance_day, dedup_scope)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7)
	`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query,
		record.ID, record.UserID, record.EventID, record.Status, record.Timestamp,
		dateParam(record.AttendanceDay), record.DedupScope,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// FindInSharedScope returns the user's attendance in [start, end) at any
// active event spawned from sharedBarcode
func (r *attendanceRepo) FindInSharedScope(ctx context.Context, userID, sharedBarcode string, start, end time.Time) (*models.AttendanceRecord, error) {
	query := `
		SELECT a.id, a.user_id, a.event_id, a.status, a.timestamp, a.attendance_day, a.dedup_scope
		FROM attendance a
		JOIN events e ON e.id = a.event_id
		WHERE a.user_id = $1
			AND e.shared_barcode = $2
			AND e.is_active
			AND a.timestamp >= $3
			AND a.timestamp < $4
		ORDER BY a.timestamp
		LIMIT 1
	`
	return scanAttendance(r.db.Conn(ctx).QueryRowContext(ctx, query, userID, sharedBarcode, start, end))
}

// FindInEventScope returns the user's attendance in [start, end) at one event
func (r *attendanceRepo) FindInEventScope(ctx context.Context, userID, eventID string, start, end time.Time) (*models.AttendanceRecord, error) {
	query := `
		SELECT id, user_id, event_id, status, timestamp, attendance_day, dedup_scope
		FROM attendance
		WHERE user_id = $1
			AND event_id = $2
			AND timestamp >= $3
			AND timestamp < $4
		ORDER BY timestamp
		LIMIT 1
	`
	return scanAttendance(r.db.Conn(ctx).QueryRowContext(ctx, query, userID, eventID, start, end))
}

// FindByScope returns the row holding the (user, scope, day) uniqueness slot
func (r *attendanceRepo) FindByScope(ctx context.Context, userID, scope string, day time.Time) (*models.AttendanceRecord, error) {
	query := `
		SELECT id, user_id, event_id, status, timestamp, attendance_day, dedup_scope
		FROM attendance
		WHERE user_id = $1 AND dedup_scope = $2 AND attendance_day = $3::date
	`
	return scanAttendance(r.db.Conn(ctx).QueryRowContext(ctx, query, userID, scope, dateParam(day)))
}

// GetView retrieves an attendance row joined with user and event details
func (r *attendanceRepo) GetView(ctx context.Context, id string) (*models.AttendanceView, error) {
	query := attendanceViewQuery + ` WHERE a.id = $1`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("get attendance view: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	view, err := scanView(rows)
	if err != nil {
		return nil, err
	}
	return view, rows.Err()
}

// List returns one page of attendance history, newest first
func (r *attendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceView, error) {
	where, args := buildAttendanceWhere(filter)
	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf("%s %s ORDER BY a.timestamp DESC LIMIT $%d OFFSET $%d",
		attendanceViewQuery, where, len(args)-1, len(args))

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	views := make([]models.AttendanceView, 0, filter.Limit)
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, rows.Err()
}

// Count returns the number of attendance rows matching filter
func (r *attendanceRepo) Count(ctx context.Context, filter models.AttendanceFilter) (int, error) {
	where, args := buildAttendanceWhere(filter)
	query := "SELECT COUNT(*) FROM attendance a " + where

	var count int
	if err := r.db.Conn(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}

func buildAttendanceWhere(filter models.AttendanceFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != "" {
		add("a.user_id = $%d", filter.UserID)
	}
	if filter.EventID != "" {
		add("a.event_id = $%d", filter.EventID)
	}
	if filter.FromDay != nil {
		add("a.attendance_day >= $%d::date", dateParam(*filter.FromDay))
	}
	if filter.ToDay != nil {
		add("a.attendance_day <= $%d::date", dateParam(*filter.ToDay))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanAttendance(row *sql.Row) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.EventID, &rec.Status, &rec.Timestamp,
		&rec.AttendanceDay, &rec.DedupScope,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan attendance: %w", err)
	}
	return &rec, nil
}

func scanView(rows *sql.Rows) (*models.AttendanceView, error) {
	var view models.AttendanceView
	var sharedBarcode, displayName sql.NullString

	err := rows.Scan(
		&view.ID, &view.UserID, &view.UserName, &view.UserBarcode, &view.EventID,
		&view.EventName, &view.EventType, &view.EventDate, &sharedBarcode, &displayName,
		&view.Status, &view.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("scan attendance view: %w", err)
	}

	if sharedBarcode.Valid {
		view.SharedBarcode = &sharedBarcode.String
	}
	if displayName.Valid {
		view.TypeDisplayName = &displayName.String
	}
	return &view, nil
}
