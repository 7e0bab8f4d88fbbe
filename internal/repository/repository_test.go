package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/attendance-api/internal/models"
	"github.com/lib/pq"
)

func TestBuildAttendanceWhere(t *testing.T) {
	loc := time.FixedZone("EET", 2*60*60)
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, loc)
	to := time.Date(2026, 10, 18, 0, 0, 0, 0, loc)

	tests := []struct {
		name     string
		filter   models.AttendanceFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filters",
			filter:  models.AttendanceFilter{Page: 1, Limit: 50},
			wantSQL: "",
		},
		{
			name:     "user only",
			filter:   models.AttendanceFilter{UserID: "u1"},
			wantSQL:  "WHERE a.user_id = $1",
			wantArgs: []any{"u1"},
		},
		{
			name:     "all filters",
			filter:   models.AttendanceFilter{UserID: "u1", EventID: "e1", FromDay: &from, ToDay: &to},
			wantSQL:  "WHERE a.user_id = $1 AND a.event_id = $2 AND a.attendance_day >= $3::date AND a.attendance_day <= $4::date",
			wantArgs: []any{"u1", "e1", "2026-10-01", "2026-10-18"},
		},
		{
			name:     "date range only",
			filter:   models.AttendanceFilter{ToDay: &to},
			wantSQL:  "WHERE a.attendance_day <= $1::date",
			wantArgs: []any{"2026-10-18"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildAttendanceWhere(tt.filter)
			if where != tt.wantSQL {
				t.Errorf("where = %q, want %q", where, tt.wantSQL)
			}
			if fmt.Sprint(args) != fmt.Sprint(tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
			if n := strings.Count(where, "$"); n != len(args) {
				t.Errorf("%d placeholders for %d args", n, len(args))
			}
		})
	}
}

func TestDateParamUsesOwnLocation(t *testing.T) {
	cairo := time.FixedZone("EET", 2*60*60)
	lateUTC := time.Date(2026, 1, 10, 22, 30, 0, 0, time.UTC)

	if got := dateParam(lateUTC); got != "2026-01-10" {
		t.Errorf("dateParam(utc) = %s, want 2026-01-10", got)
	}
	if got := dateParam(lateUTC.In(cairo)); got != "2026-01-11" {
		t.Errorf("dateParam(cairo) = %s, want 2026-01-11", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505", Constraint: "uq_attendance_user_scope_day"}
	foreignKey := &pq.Error{Code: "23503"}

	if !isUniqueViolation(unique) {
		t.Error("23505 should be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert: %w", unique)) {
		t.Error("wrapped 23505 should be a unique violation")
	}
	if isUniqueViolation(foreignKey) {
		t.Error("23503 is not a unique violation")
	}
	if isUniqueViolation(errors.New("connection reset")) {
		t.Error("plain errors are not unique violations")
	}
}
