package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/attendance-api/internal/models"
	"github.com/google/uuid"
)

const (
	// MaxBarcodeLength bounds scanned and personal barcodes
	MaxBarcodeLength = 128

	DefaultPageLimit = 50
	MinPageLimit     = 10
	MaxPageLimit     = 100

	dateLayout = "2006-01-02"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// AttendanceQuery is the raw query string of an attendance history request
type AttendanceQuery struct {
	UserID   string `form:"user_id"`
	EventID  string `form:"event_id"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
	Page     string `form:"page"`
	Limit    string `form:"limit"`
}

// Validator provides validation methods
type Validator struct {
	loc *time.Location
}

// NewValidator creates a validator interpreting calendar dates in loc
func NewValidator(loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{loc: loc}
}

// NormalizeScan trims the barcodes of a scan request in place and validates
// them. An empty scanned barcode is left to the service to reject.
func (v *Validator) NormalizeScan(req *models.ScanRequest) []ValidationError {
	var errors []ValidationError

	req.ScannedBarcode = strings.TrimSpace(req.ScannedBarcode)
	req.PersonalBarcode = strings.TrimSpace(req.PersonalBarcode)

	if msg := checkBarcode(req.ScannedBarcode); msg != "" {
		errors = append(errors, ValidationError{Field: "scanned_barcode", Message: msg, Value: req.ScannedBarcode})
	}
	if msg := checkBarcode(req.PersonalBarcode); msg != "" {
		errors = append(errors, ValidationError{Field: "personal_barcode", Message: msg, Value: req.PersonalBarcode})
	}

	return errors
}

// ParseAttendanceQuery converts q into a filter, applying pagination defaults
func (v *Validator) ParseAttendanceQuery(q AttendanceQuery) (models.AttendanceFilter, []ValidationError) {
	var errors []ValidationError
	filter := models.AttendanceFilter{Page: 1, Limit: DefaultPageLimit}

	if q.UserID != "" {
		if !isValidUUID(q.UserID) {
			errors = append(errors, ValidationError{Field: "user_id", Message: "invalid UUID format", Value: q.UserID})
		} else {
			filter.UserID = q.UserID
		}
	}

	if q.EventID != "" {
		if !isValidUUID(q.EventID) {
			errors = append(errors, ValidationError{Field: "event_id", Message: "invalid UUID format", Value: q.EventID})
		} else {
			filter.EventID = q.EventID
		}
	}

	if q.FromDate != "" {
		if day, err := time.ParseInLocation(dateLayout, q.FromDate, v.loc); err != nil {
			errors = append(errors, ValidationError{Field: "from_date", Message: "date must be YYYY-MM-DD", Value: q.FromDate})
		} else {
			filter.FromDay = &day
		}
	}

	if q.ToDate != "" {
		if day, err := time.ParseInLocation(dateLayout, q.ToDate, v.loc); err != nil {
			errors = append(errors, ValidationError{Field: "to_date", Message: "date must be YYYY-MM-DD", Value: q.ToDate})
		} else {
			filter.ToDay = &day
		}
	}

	if filter.FromDay != nil && filter.ToDay != nil && filter.FromDay.After(*filter.ToDay) {
		errors = append(errors, ValidationError{Field: "from_date", Message: "from_date must not be after to_date", Value: q.FromDate})
	}

	// Out-of-range page numbers are clamped rather than rejected
	if q.Page != "" {
		page, err := strconv.Atoi(q.Page)
		if err != nil {
			errors = append(errors, ValidationError{Field: "page", Message: "page must be an integer", Value: q.Page})
		} else {
			filter.Page = max(1, page)
		}
	}

	if q.Limit != "" {
		limit, err := strconv.Atoi(q.Limit)
		if err != nil {
			errors = append(errors, ValidationError{Field: "limit", Message: "limit must be an integer", Value: q.Limit})
		} else {
			filter.Limit = min(MaxPageLimit, max(MinPageLimit, limit))
		}
	}

	return filter, errors
}

// Summary joins errors into one message
func Summary(errors []ValidationError) string {
	parts := make([]string, 0, len(errors))
	for _, e := range errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

func checkBarcode(code string) string {
	if len(code) > MaxBarcodeLength {
		return fmt.Sprintf("barcode exceeds maximum length of %d", MaxBarcodeLength)
	}
	for _, r := range code {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "barcode must not contain whitespace or control characters"
		}
	}
	return ""
}

// isValidUUID checks if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
