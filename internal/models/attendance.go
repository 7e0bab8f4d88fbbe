package models

import (
	"time"
)

// AttendanceStatus is the outcome recorded for a user at an event
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// AttendanceRecord ties one user to one event. Rows are never updated.
type AttendanceRecord struct {
	ID            string           `json:"id" db:"id"`
	UserID        string           `json:"user_id" db:"user_id"`
	EventID       string           `json:"event_id" db:"event_id"`
	Status        AttendanceStatus `json:"status" db:"status"`
	Timestamp     time.Time        `json:"timestamp" db:"timestamp"`
	AttendanceDay time.Time        `json:"-" db:"attendance_day"`
	DedupScope    string           `json:"-" db:"dedup_scope"`
}

// AttendanceView is an attendance row joined with user, event and directory data
type AttendanceView struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	UserName        string           `json:"user_name"`
	UserBarcode     string           `json:"user_barcode,omitempty"`
	EventID         string           `json:"event_id"`
	EventName       string           `json:"event_name"`
	EventType       EventType        `json:"event_type"`
	EventDate       time.Time        `json:"event_date"`
	SharedBarcode   *string          `json:"shared_barcode,omitempty"`
	TypeDisplayName *string          `json:"type_display_name,omitempty"`
	Status          AttendanceStatus `json:"status"`
	Timestamp       time.Time        `json:"timestamp"`
}

// ScanRequest is a barcode scan presented at a check-in point.
// Token is the bearer session token from the Authorization header, if any.
type ScanRequest struct {
	ScannedBarcode  string `json:"scanned_barcode"`
	PersonalBarcode string `json:"personal_barcode,omitempty"`
	Token           string `json:"-"`
}

// ScanResult is the confirmation returned for a recorded check-in
type ScanResult struct {
	Attendance      *AttendanceView `json:"attendance"`
	IsSharedBarcode bool            `json:"is_shared_barcode"`
	EventCreated    bool            `json:"event_created"`
	ScanTime        time.Time       `json:"scan_time"`
}

// AttendanceFilter selects attendance history rows.
// FromDay and ToDay are inclusive calendar days.
type AttendanceFilter struct {
	UserID  string
	EventID string
	FromDay *time.Time
	ToDay   *time.Time
	Page    int
	Limit   int
}

// Offset returns the row offset of the requested page
func (f AttendanceFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Pagination describes a page of results
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// AttendancePage is one page of attendance history
type AttendancePage struct {
	Data       []AttendanceView `json:"data"`
	Pagination Pagination       `json:"pagination"`
}
