package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attendance-api/internal/metrics"
	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxMaterializeAttempts bounds find-or-create rounds for one scan. A round
// only repeats when a concurrent creator won the insert and its row is not
// visible yet, e.g. because that transaction rolled back.
const maxMaterializeAttempts = 3

// eventResolver finds, or for shared barcodes creates, the event a scan
// applies to
type eventResolver struct {
	events  repository.EventRepository
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// Resolve returns the event for c and whether it was created by this call
func (r *eventResolver) Resolve(ctx context.Context, c Classification, now time.Time, day DayWindow) (*models.Event, bool, error) {
	switch c := c.(type) {
	case SharedClassification:
		return r.resolveShared(ctx, c.Entry, now, day)
	case IndividualClassification:
		event, err := r.events.FindActiveByBarcode(ctx, c.Code)
		if err != nil {
			return nil, false, errStorage("look up event barcode", err)
		}
		if event == nil {
			return nil, false, errUnknownBarcode(c.Code)
		}
		return event, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported classification %T", c)
	}
}

func (r *eventResolver) resolveShared(ctx context.Context, entry models.EventTypeBarcode, now time.Time, day DayWindow) (*models.Event, bool, error) {
	for attempt := 1; attempt <= maxMaterializeAttempts; attempt++ {
		existing, err := r.events.FindSharedInWindow(ctx, entry.Barcode, day.Start, day.End)
		if err != nil {
			return nil, false, errStorage("look up daily event", err)
		}
		if existing != nil {
			return existing, false, nil
		}

		event := newDailyEvent(entry, now, day)
		created, err := r.events.CreateShared(ctx, event)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, false, errStorage("create daily event", fmt.Errorf("event barcode %s already taken", event.Barcode))
			}
			return nil, false, errStorage("create daily event", err)
		}
		if created {
			r.metrics.IncMaterialized(string(entry.EventType))
			r.log.Info().
				Str("event_id", event.ID).
				Str("shared_barcode", entry.Barcode).
				Str("day", day.Date()).
				Msg("Materialized daily event")
			return event, true, nil
		}

		r.log.Debug().
			Str("shared_barcode", entry.Barcode).
			Int("attempt", attempt).
			Msg("Concurrent scan created the daily event, re-reading")
	}
	return nil, false, errStorage("create daily event",
		fmt.Errorf("no event for %s on %s after %d attempts", entry.Barcode, day.Date(), maxMaterializeAttempts))
}

// newDailyEvent builds the event instance for a shared barcode on day
func newDailyEvent(entry models.EventTypeBarcode, now time.Time, day DayWindow) *models.Event {
	local := now.In(day.Start.Location())
	shared := entry.Barcode
	return &models.Event{
		ID:            uuid.NewString(),
		Name:          entry.DisplayName + " - " + day.Date(),
		Description:   "Created automatically on scan / تم إنشاؤها تلقائياً عند المسح - " + local.Format("2006-01-02 15:04:05"),
		Type:          entry.EventType,
		ScheduledAt:   now,
		ScheduledDay:  day.Start,
		Barcode:       entry.Barcode + "_" + local.Format("20060102_150405"),
		SharedBarcode: &shared,
		Active:        true,
		CreatedAt:     now,
	}
}
