package repository

import (
	"context"
	"errors"
	"time"

	"github.com/attendance-api/internal/database"
	"github.com/attendance-api/internal/models"
	"github.com/lib/pq"
)

// ErrDuplicate is returned when a write violates a uniqueness constraint
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines the interface for user lookups
type UserRepository interface {
	GetActiveByBarcode(ctx context.Context, barcode string) (*models.User, error)
	GetActiveBySessionToken(ctx context.Context, token string, now time.Time) (*models.User, error)
}

// BarcodeRepository defines the interface for the shared barcode directory
type BarcodeRepository interface {
	ListActive(ctx context.Context) ([]models.EventTypeBarcode, error)
	ListWithStats(ctx context.Context) ([]models.SharedBarcodeStats, error)
}

// EventRepository defines the interface for event data operations
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	FindSharedInWindow(ctx context.Context, sharedBarcode string, start, end time.Time) (*models.Event, error)
	FindActiveByBarcode(ctx context.Context, barcode string) (*models.Event, error)
	CreateShared(ctx context.Context, event *models.Event) (bool, error)
}

// AttendanceRepository defines the interface for attendance data operations
type AttendanceRepository interface {
	Create(ctx context.Context, record *models.AttendanceRecord) error
	FindInSharedScope(ctx context.Context, userID, sharedBarcode string, start, end time.Time) (*models.AttendanceRecord, error)
	FindInEventScope(ctx context.Context, userID, eventID string, start, end time.Time) (*models.AttendanceRecord, error)
	FindByScope(ctx context.Context, userID, scope string, day time.Time) (*models.AttendanceRecord, error)
	GetView(ctx context.Context, id string) (*models.AttendanceView, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceView, error)
	Count(ctx context.Context, filter models.AttendanceFilter) (int, error)
}

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User       UserRepository
	Barcode    BarcodeRepository
	Event      EventRepository
	Attendance AttendanceRepository
	Tx         TxRunner
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepo(db),
		Barcode:    NewBarcodeRepo(db),
		Event:      NewEventRepo(db),
		Attendance: NewAttendanceRepo(db),
		Tx:         db,
	}
}

const uniqueViolation = pq.ErrorCode("23505")

// isUniqueViolation reports whether err is a PostgreSQL unique_violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// dateParam formats t's calendar date (in t's own location) for DATE columns
func dateParam(t time.Time) string {
	return t.Format("2006-01-02")
}
