package api

import (
	"net/http"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/service"
	"github.com/attendance-api/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// scanBody is the JSON body of a scan. event_barcode and user_barcode_id
// are accepted for older scanner clients.
type scanBody struct {
	ScannedBarcode  string `json:"scanned_barcode"`
	PersonalBarcode string `json:"personal_barcode"`
	EventBarcode    string `json:"event_barcode"`
	UserBarcodeID   string `json:"user_barcode_id"`
}

func (b scanBody) request() *models.ScanRequest {
	req := &models.ScanRequest{
		ScannedBarcode:  b.ScannedBarcode,
		PersonalBarcode: b.PersonalBarcode,
	}
	if req.ScannedBarcode == "" {
		req.ScannedBarcode = b.EventBarcode
	}
	if req.PersonalBarcode == "" {
		req.PersonalBarcode = b.UserBarcodeID
	}
	return req
}

// AttendanceHandler handles check-in and history endpoints
type AttendanceHandler struct {
	attendance service.AttendanceService
	validator  *validation.Validator
	log        zerolog.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler
func NewAttendanceHandler(services *service.Services, log zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: services.Attendance,
		validator:  validation.NewValidator(services.Attendance.Location()),
		log:        log.With().Str("handler", "attendance").Logger(),
	}
}

// Scan handles POST /v1/attendance/scan
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var body scanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, service.ErrInvalidInput("request body must be a JSON object"))
		return
	}

	req := body.request()
	if errs := h.validator.NormalizeScan(req); len(errs) > 0 {
		respondError(c, service.ErrInvalidInput(validation.Summary(errs)))
		return
	}
	token, err := bearerToken(c)
	if err != nil {
		respondError(c, err)
		return
	}
	req.Token = token

	result, err := h.attendance.Scan(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	name := ""
	if result.Attendance != nil {
		name = result.Attendance.EventName
		if result.Attendance.TypeDisplayName != nil {
			name = *result.Attendance.TypeDisplayName
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Attendance recorded for " + name,
		"message_ar": "تم تسجيل حضورك في " + name + " بنجاح",
		"data":       result,
	})
}

// List handles GET /v1/attendance
func (h *AttendanceHandler) List(c *gin.Context) {
	var query validation.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, service.ErrInvalidInput("invalid query parameters"))
		return
	}

	filter, errs := h.validator.ParseAttendanceQuery(query)
	if len(errs) > 0 {
		respondError(c, service.ErrInvalidInput(validation.Summary(errs)))
		return
	}

	page, err := h.attendance.List(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    page,
	})
}
