package service

import (
	"time"
)

// DayWindow is the half-open interval [Start, End) covering one calendar
// day in a given location
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayWindowAt returns the calendar day containing t in loc
func DayWindowAt(t time.Time, loc *time.Location) DayWindow {
	y, m, d := t.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Date formats the day as YYYY-MM-DD
func (w DayWindow) Date() string {
	return w.Start.Format("2006-01-02")
}
