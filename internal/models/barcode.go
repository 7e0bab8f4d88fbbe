package models

import (
	"time"
)

// EventType enumerates the recurring activity kinds
type EventType string

const (
	EventTypeMass     EventType = "mass"
	EventTypeTasbeha  EventType = "tasbeha"
	EventTypeMeeting  EventType = "meeting"
	EventTypeActivity EventType = "activity"
)

// ValidEventTypes defines allowed event types
var ValidEventTypes = map[EventType]bool{
	EventTypeMass:     true,
	EventTypeTasbeha:  true,
	EventTypeMeeting:  true,
	EventTypeActivity: true,
}

// EventTypeBarcode maps an event type to its shared barcode
type EventTypeBarcode struct {
	ID          int       `json:"id" db:"id"`
	EventType   EventType `json:"event_type" db:"event_type"`
	Barcode     string    `json:"barcode" db:"barcode"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Description string    `json:"description" db:"description"`
	Active      bool      `json:"is_active" db:"is_active"`
}

// SharedBarcodeStats is a directory entry with its usage counters
type SharedBarcodeStats struct {
	EventTypeBarcode
	TotalEvents            int        `json:"total_events"`
	TotalUniqueAttendees   int        `json:"total_unique_attendees"`
	TotalAttendanceRecords int        `json:"total_attendance_records"`
	LastScanTime           *time.Time `json:"last_scan_time"`
}
