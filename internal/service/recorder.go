package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/google/uuid"
)

// recorder persists check-ins
type recorder struct {
	attendance repository.AttendanceRepository
}

// Record inserts a "present" row stamped with now and returns its joined
// view. repository.ErrDuplicate is returned unwrapped when the dedup slot is
// already taken.
func (r *recorder) Record(ctx context.Context, user *models.User, event *models.Event, now time.Time, day DayWindow) (*models.AttendanceView, error) {
	record := &models.AttendanceRecord{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		EventID:       event.ID,
		Status:        models.AttendanceStatusPresent,
		Timestamp:     now,
		AttendanceDay: day.Start,
		DedupScope:    event.DedupScope(),
	}

	if err := r.attendance.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, err
		}
		return nil, errStorage("record attendance", err)
	}

	view, err := r.attendance.GetView(ctx, record.ID)
	if err != nil {
		return nil, errStorage("load attendance", err)
	}
	if view == nil {
		return nil, errStorage("load attendance", fmt.Errorf("attendance %s not found after insert", record.ID))
	}
	return view, nil
}
