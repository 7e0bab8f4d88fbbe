package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/attendance-api/internal/database"
	"github.com/attendance-api/internal/models"
)

// barcodeRepo is the concrete implementation of BarcodeRepository
type barcodeRepo struct {
	db *database.DB
}

// NewBarcodeRepo creates a new shared barcode directory repository
func NewBarcodeRepo(db *database.DB) BarcodeRepository {
	return &barcodeRepo{db: db}
}

// ListActive returns every active directory entry
func (r *barcodeRepo) ListActive(ctx context.Context) ([]models.EventTypeBarcode, error) {
	query := `
		SELECT id, event_type, barcode, display_name, description, is_active
		FROM event_type_barcodes
		WHERE is_active
		ORDER BY event_type
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active barcodes: %w", err)
	}
	defer rows.Close()

	var entries []models.EventTypeBarcode
	for rows.Next() {
		var e models.EventTypeBarcode
		if err := rows.Scan(&e.ID, &e.EventType, &e.Barcode, &e.DisplayName, &e.Description, &e.Active); err != nil {
			return nil, fmt.Errorf("scan barcode: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListWithStats returns every directory entry with usage statistics
func (r *barcodeRepo) ListWithStats(ctx context.Context) ([]models.SharedBarcodeStats, error) {
	query := `
		SELECT
			etb.id, etb.event_type, etb.barcode, etb.display_name, etb.description, etb.is_active,
			COUNT(DISTINCT e.id) AS total_events,
			COUNT(DISTINCT a.user_id) AS total_unique_attendees,
			COUNT(a.id) AS total_attendance_records,
			MAX(a.timestamp) AS last_scan_time
		FROM event_type_barcodes etb
		LEFT JOIN events e ON e.shared_barcode = etb.barcode
		LEFT JOIN attendance a ON a.event_id = e.id
		GROUP BY etb.id, etb.event_type, etb.barcode, etb.display_name, etb.description, etb.is_active
		ORDER BY etb.event_type
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list barcode stats: %w", err)
	}
	defer rows.Close()

	stats := make([]models.SharedBarcodeStats, 0)
	for rows.Next() {
		var s models.SharedBarcodeStats
		var lastScan sql.NullTime
		err := rows.Scan(
			&s.ID, &s.EventType, &s.Barcode, &s.DisplayName, &s.Description, &s.Active,
			&s.TotalEvents, &s.TotalUniqueAttendees, &s.TotalAttendanceRecords, &lastScan,
		)
		if err != nil {
			return nil, fmt.Errorf("scan barcode stats: %w", err)
		}
		if lastScan.Valid {
			s.LastScanTime = &lastScan.Time
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
