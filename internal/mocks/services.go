package mocks

import (
	"context"
	"time"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/service"
)

// MockIdentityService is a mock implementation of IdentityService.
// Tokens maps session tokens to users.
type MockIdentityService struct {
	Tokens      map[string]*models.User
	ResolveFunc func(ctx context.Context, token, personalBarcode string) (*models.User, error)
	Err         error
}

// Verify interface compliance
var _ service.IdentityService = (*MockIdentityService)(nil)

func NewMockIdentityService() *MockIdentityService {
	return &MockIdentityService{
		Tokens: make(map[string]*models.User),
	}
}

func (m *MockIdentityService) Resolve(ctx context.Context, token, personalBarcode string) (*models.User, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, token, personalBarcode)
	}
	return m.Authenticate(ctx, token)
}

func (m *MockIdentityService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	user, ok := m.Tokens[token]
	if !ok {
		return nil, service.ErrUnauthenticated("invalid or expired token")
	}
	return user, nil
}

// MockAttendanceService is a mock implementation of AttendanceService
type MockAttendanceService struct {
	ScanFunc func(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error)
	ListFunc func(ctx context.Context, viewer *models.User, filter models.AttendanceFilter) (*models.AttendancePage, error)
	Loc      *time.Location

	Scans   []models.ScanRequest
	Filters []models.AttendanceFilter
}

// Verify interface compliance
var _ service.AttendanceService = (*MockAttendanceService)(nil)

func NewMockAttendanceService() *MockAttendanceService {
	return &MockAttendanceService{Loc: time.UTC}
}

func (m *MockAttendanceService) Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
	m.Scans = append(m.Scans, *req)
	if m.ScanFunc != nil {
		return m.ScanFunc(ctx, req)
	}
	return &models.ScanResult{
		Attendance: &models.AttendanceView{ID: "test-attendance-id", Status: models.AttendanceStatusPresent},
		ScanTime:   time.Now(),
	}, nil
}

func (m *MockAttendanceService) List(ctx context.Context, viewer *models.User, filter models.AttendanceFilter) (*models.AttendancePage, error) {
	m.Filters = append(m.Filters, filter)
	if m.ListFunc != nil {
		return m.ListFunc(ctx, viewer, filter)
	}
	return &models.AttendancePage{
		Data:       []models.AttendanceView{},
		Pagination: models.Pagination{Page: filter.Page, Limit: filter.Limit},
	}, nil
}

func (m *MockAttendanceService) Location() *time.Location {
	return m.Loc
}

// MockBarcodeService is a mock implementation of BarcodeService
type MockBarcodeService struct {
	Stats []models.SharedBarcodeStats
	Err   error
}

// Verify interface compliance
var _ service.BarcodeService = (*MockBarcodeService)(nil)

func NewMockBarcodeService() *MockBarcodeService {
	return &MockBarcodeService{Stats: []models.SharedBarcodeStats{}}
}

func (m *MockBarcodeService) ListSharedBarcodes(ctx context.Context) ([]models.SharedBarcodeStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Stats, nil
}
