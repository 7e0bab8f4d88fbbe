package models

import (
	"time"
)

// Event is a concrete occurrence that attendance is recorded against.
// SharedBarcode is set only for events materialized from a shared barcode.
type Event struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Type          EventType `json:"type" db:"type"`
	ScheduledAt   time.Time `json:"date" db:"scheduled_at"`
	ScheduledDay  time.Time `json:"-" db:"scheduled_day"`
	Barcode       string    `json:"barcode" db:"barcode"`
	SharedBarcode *string   `json:"shared_barcode" db:"shared_barcode"`
	Active        bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// IsShared reports whether the event was spawned from a shared barcode
func (e *Event) IsShared() bool {
	return e.SharedBarcode != nil && *e.SharedBarcode != ""
}

// DedupScope names the set of events a check-in is deduplicated against:
// every event of the same shared barcode, or the event itself.
func (e *Event) DedupScope() string {
	if e.IsShared() {
		return "shared:" + *e.SharedBarcode
	}
	return "event:" + e.ID
}
