package service

import (
	"context"
	"time"

	"github.com/attendance-api/internal/cache"
	"github.com/attendance-api/internal/config"
	"github.com/attendance-api/internal/metrics"
	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/rs/zerolog"
)

// IdentityService defines the interface for resolving callers to users
type IdentityService interface {
	Resolve(ctx context.Context, token, personalBarcode string) (*models.User, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AttendanceService defines the interface for check-ins and history
type AttendanceService interface {
	Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error)
	List(ctx context.Context, viewer *models.User, filter models.AttendanceFilter) (*models.AttendancePage, error)
	Location() *time.Location
}

// BarcodeService defines the interface for the shared barcode directory
type BarcodeService interface {
	ListSharedBarcodes(ctx context.Context) ([]models.SharedBarcodeStats, error)
}

// Services holds all service interfaces
type Services struct {
	Identity   IdentityService
	Attendance AttendanceService
	Barcodes   BarcodeService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, store cache.DirectoryStore, m *metrics.Metrics, cfg *config.Config, log zerolog.Logger) *Services {
	directory := NewBarcodeDirectory(repos.Barcode, store, cfg.Attendance.DirectoryTTL, m, log)
	identity := NewIdentityService(repos.User, time.Now, log)
	attendance := NewAttendanceService(repos, identity, directory, AttendanceOptions{
		Location: cfg.Attendance.Location,
	}, m, log)

	return &Services{
		Identity:   identity,
		Attendance: attendance,
		Barcodes:   newBarcodeService(repos.Barcode, log),
	}
}
