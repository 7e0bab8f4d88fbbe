package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/attendance-api/internal/api"
	"github.com/attendance-api/internal/metrics"
	"github.com/attendance-api/internal/mocks"
	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck(ctx context.Context) error { return s.err }

type testEnv struct {
	router     *gin.Engine
	identity   *mocks.MockIdentityService
	attendance *mocks.MockAttendanceService
	barcodes   *mocks.MockBarcodeService
}

func setupTestRouter(health api.HealthChecker) *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		identity:   mocks.NewMockIdentityService(),
		attendance: mocks.NewMockAttendanceService(),
		barcodes:   mocks.NewMockBarcodeService(),
	}
	services := &service.Services{
		Identity:   env.identity,
		Attendance: env.attendance,
		Barcodes:   env.barcodes,
	}
	env.router = api.NewRouter(services, metrics.New(), health, zerolog.Nop())
	return env
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(stubHealth{})

	w := env.do("GET", "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	response := decode(t, w)
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "attendance-api", response["service"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	env := setupTestRouter(stubHealth{err: errors.New("connection refused")})

	w := env.do("GET", "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode(t, w)["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("GET", "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestScan_Success(t *testing.T) {
	env := setupTestRouter(nil)
	display := "القداس"
	env.attendance.ScanFunc = func(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
		return &models.ScanResult{
			Attendance: &models.AttendanceView{
				ID:              "att-1",
				EventName:       "القداس - 2026-10-18",
				TypeDisplayName: &display,
				Status:          models.AttendanceStatusPresent,
			},
			IsSharedBarcode: true,
			EventCreated:    true,
			ScanTime:        time.Now(),
		}, nil
	}

	w := env.do("POST", "/v1/attendance/scan", map[string]string{
		"scanned_barcode":  " MASS_SHARED ",
		"personal_barcode": "USER_A",
	}, "tok-1")

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	response := decode(t, w)
	assert.Equal(t, true, response["success"])
	assert.Contains(t, response["message_ar"], display)

	data := response["data"].(map[string]any)
	assert.Equal(t, true, data["is_shared_barcode"])
	assert.Equal(t, true, data["event_created"])

	require.Len(t, env.attendance.Scans, 1)
	scan := env.attendance.Scans[0]
	assert.Equal(t, "MASS_SHARED", scan.ScannedBarcode)
	assert.Equal(t, "USER_A", scan.PersonalBarcode)
	assert.Equal(t, "tok-1", scan.Token)
}

func TestScan_LegacyFieldNames(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("POST", "/v1/attendance/scan", map[string]string{
		"event_barcode":   "EVT123",
		"user_barcode_id": "USER_C",
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, env.attendance.Scans, 1)
	assert.Equal(t, "EVT123", env.attendance.Scans[0].ScannedBarcode)
	assert.Equal(t, "USER_C", env.attendance.Scans[0].PersonalBarcode)
	assert.Empty(t, env.attendance.Scans[0].Token)
}

func TestScan_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantToken string
	}{
		{"lowercase scheme", "bearer tok-1", http.StatusCreated, "tok-1"},
		{"uppercase scheme", "BEARER tok-1", http.StatusCreated, "tok-1"},
		{"other scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"scheme without token", "Bearer", http.StatusUnauthorized, ""},
		{"token with spaces", "Bearer tok 1", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(nil)

			body, _ := json.Marshal(map[string]string{
				"scanned_barcode":  "MASS_SHARED",
				"personal_barcode": "USER_A",
			})
			req := httptest.NewRequest("POST", "/v1/attendance/scan", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", tt.header)
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantCode != http.StatusCreated {
				assert.Empty(t, env.attendance.Scans, "a malformed header must not fall back to the personal barcode")
				assert.Equal(t, "unauthenticated", decode(t, w)["error"].(map[string]any)["kind"])
				return
			}
			require.Len(t, env.attendance.Scans, 1)
			assert.Equal(t, tt.wantToken, env.attendance.Scans[0].Token)
		})
	}
}

func TestScan_InvalidBody(t *testing.T) {
	env := setupTestRouter(nil)

	req := httptest.NewRequest("POST", "/v1/attendance/scan", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "invalid_input", errBody["kind"])
	assert.Empty(t, env.attendance.Scans)
}

func TestScan_MalformedBarcode(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("POST", "/v1/attendance/scan", map[string]string{"scanned_barcode": "MASS SHARED"}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.attendance.Scans)
}

func TestScan_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"missing input", &service.ScanError{Kind: service.KindMissingInput}, http.StatusBadRequest, "missing_input"},
		{"unauthenticated", &service.ScanError{Kind: service.KindUnauthenticated}, http.StatusUnauthorized, "unauthenticated"},
		{"unknown barcode", &service.ScanError{Kind: service.KindUnknownBarcode}, http.StatusNotFound, "unknown_barcode"},
		{"storage failure", &service.ScanError{Kind: service.KindStorageFailure, Message: "record attendance failed", Err: errors.New("pq: deadlock")}, http.StatusInternalServerError, "storage_failure"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "storage_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestRouter(nil)
			env.attendance.ScanFunc = func(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
				return nil, tt.err
			}

			w := env.do("POST", "/v1/attendance/scan", map[string]string{"scanned_barcode": "X"}, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			response := decode(t, w)
			assert.Equal(t, false, response["success"])
			errBody := response["error"].(map[string]any)
			assert.Equal(t, tt.wantKind, errBody["kind"])
			assert.NotContains(t, w.Body.String(), "deadlock")
		})
	}
}

func TestScan_AlreadyCheckedIn(t *testing.T) {
	env := setupTestRouter(nil)
	existing := &models.AttendanceRecord{ID: "att-earlier", UserID: "user-a", EventID: "event-1"}
	env.attendance.ScanFunc = func(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
		return nil, &service.ScanError{
			Kind:      service.KindAlreadyCheckedIn,
			Message:   "attendance already recorded for this event today at 09:00",
			MessageAr: "حضورك مسجل من قبل اليوم في 09:00",
			Existing:  existing,
			Event:     &models.Event{ID: "event-1", Name: "Mass"},
		}
	}

	w := env.do("POST", "/v1/attendance/scan", map[string]string{"scanned_barcode": "MASS_SHARED"}, "tok")

	assert.Equal(t, http.StatusConflict, w.Code)
	response := decode(t, w)
	errBody := response["error"].(map[string]any)
	assert.Equal(t, "already_checked_in", errBody["kind"])
	assert.Contains(t, errBody["message_ar"], "09:00")

	data := response["data"].(map[string]any)
	assert.Equal(t, "att-earlier", data["existing_attendance"].(map[string]any)["id"])
	assert.Equal(t, "event-1", data["event"].(map[string]any)["id"])
}

func TestListAttendance_RequiresToken(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("GET", "/v1/attendance", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("GET", "/v1/attendance", nil, "unknown")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/v1/attendance", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, env.attendance.Filters)
}

func TestListAttendance(t *testing.T) {
	env := setupTestRouter(nil)
	servant := &models.User{ID: "servant-1", Role: models.RoleServant}
	env.identity.Tokens["tok"] = servant

	var viewer *models.User
	env.attendance.ListFunc = func(ctx context.Context, v *models.User, filter models.AttendanceFilter) (*models.AttendancePage, error) {
		viewer = v
		return &models.AttendancePage{
			Data:       []models.AttendanceView{{ID: "att-1"}},
			Pagination: models.Pagination{Page: filter.Page, Limit: filter.Limit, Total: 1, TotalPages: 1},
		}, nil
	}

	w := env.do("GET", "/v1/attendance?page=2&limit=500&from_date=2026-10-01&to_date=2026-10-18", nil, "tok")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Same(t, servant, viewer)

	require.Len(t, env.attendance.Filters, 1)
	filter := env.attendance.Filters[0]
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, 100, filter.Limit)
	require.NotNil(t, filter.FromDay)
	assert.Equal(t, "2026-10-01", filter.FromDay.Format("2006-01-02"))

	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["data"], 1)
	assert.Equal(t, float64(1), data["pagination"].(map[string]any)["total"])
}

func TestListAttendance_InvalidQuery(t *testing.T) {
	env := setupTestRouter(nil)
	env.identity.Tokens["tok"] = &models.User{ID: "admin-1", Role: models.RoleAdmin}

	w := env.do("GET", "/v1/attendance?from_date=yesterday", nil, "tok")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"].(map[string]any)["message"], "from_date")
	assert.Empty(t, env.attendance.Filters)
}

func TestListSharedBarcodes(t *testing.T) {
	env := setupTestRouter(nil)
	env.identity.Tokens["tok"] = &models.User{ID: "member-1", Role: models.RoleMember}
	env.barcodes.Stats = []models.SharedBarcodeStats{
		{EventTypeBarcode: models.EventTypeBarcode{ID: 1, EventType: models.EventTypeMass, Barcode: "MASS_SHARED", Active: true}, TotalEvents: 3},
		{EventTypeBarcode: models.EventTypeBarcode{ID: 2, EventType: models.EventTypeTasbeha, Barcode: "TASBEHA_SHARED"}},
	}

	w := env.do("GET", "/v1/shared-barcodes", nil, "tok")

	require.Equal(t, http.StatusOK, w.Code)
	response := decode(t, w)
	assert.Equal(t, float64(2), response["count"])
	first := response["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "MASS_SHARED", first["barcode"])
	assert.Equal(t, float64(3), first["total_events"])
}

func TestListSharedBarcodes_RequiresToken(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("GET", "/v1/shared-barcodes", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestRouter(nil)

	w := env.do("OPTIONS", "/v1/attendance/scan", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}
