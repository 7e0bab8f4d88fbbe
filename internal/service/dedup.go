package service

import (
	"context"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
)

// dedupGuard finds an earlier same-day check-in within an event's dedup scope.
// Events carrying a shared barcode are deduplicated across every active event
// of that barcode; other events only against themselves.
type dedupGuard struct {
	attendance repository.AttendanceRepository
}

// Check returns the existing check-in, or nil
func (g *dedupGuard) Check(ctx context.Context, user *models.User, event *models.Event, day DayWindow) (*models.AttendanceRecord, error) {
	if event.IsShared() {
		return g.attendance.FindInSharedScope(ctx, user.ID, *event.SharedBarcode, day.Start, day.End)
	}
	return g.attendance.FindInEventScope(ctx, user.ID, event.ID, day.Start, day.End)
}

// Holder returns the row occupying the (user, scope, day) uniqueness slot
func (g *dedupGuard) Holder(ctx context.Context, user *models.User, event *models.Event, day DayWindow) (*models.AttendanceRecord, error) {
	return g.attendance.FindByScope(ctx, user.ID, event.DedupScope(), day.Start)
}
