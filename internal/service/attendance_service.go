package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/attendance-api/internal/metrics"
	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/rs/zerolog"
)

// AttendanceOptions configures the calendar of the attendance service
type AttendanceOptions struct {
	// Location defines calendar-day boundaries. Defaults to UTC.
	Location *time.Location
	// Now supplies the server time. Defaults to time.Now.
	Now func() time.Time
}

// attendanceService is the concrete implementation of AttendanceService
type attendanceService struct {
	repos      *repository.Repositories
	identity   IdentityService
	classifier *classifier
	resolver   *eventResolver
	dedup      *dedupGuard
	recorder   *recorder
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
	log        zerolog.Logger
}

// NewAttendanceService wires the scan pipeline:
// identity → classifier → event resolver → dedup guard → recorder
func NewAttendanceService(
	repos *repository.Repositories,
	identity IdentityService,
	directory *BarcodeDirectory,
	opts AttendanceOptions,
	m *metrics.Metrics,
	log zerolog.Logger,
) AttendanceService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log = log.With().Str("service", "attendance").Logger()

	return &attendanceService{
		repos:      repos,
		identity:   identity,
		classifier: &classifier{directory: directory},
		resolver:   &eventResolver{events: repos.Event, metrics: m, log: log},
		dedup:      &dedupGuard{attendance: repos.Attendance},
		recorder:   &recorder{attendance: repos.Attendance},
		metrics:    m,
		loc:        opts.Location,
		now:        opts.Now,
		log:        log,
	}
}

// Scan records a check-in for the scanned barcode
func (s *attendanceService) Scan(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
	start := time.Now()
	result, err := s.scan(ctx, req)

	kind := "success"
	if err != nil {
		kind = string(KindOf(err))
		s.logFailure(req, err)
	}
	s.metrics.ObserveScan(kind, time.Since(start).Seconds())

	return result, err
}

func (s *attendanceService) scan(ctx context.Context, req *models.ScanRequest) (*models.ScanResult, error) {
	barcode := strings.TrimSpace(req.ScannedBarcode)
	if barcode == "" {
		return nil, errMissingInput("scanned_barcode")
	}

	user, err := s.identity.Resolve(ctx, strings.TrimSpace(req.Token), strings.TrimSpace(req.PersonalBarcode))
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	day := DayWindowAt(now, s.loc)

	class, err := s.classifier.Classify(ctx, barcode)
	if err != nil {
		return nil, err
	}

	var (
		event   *models.Event
		created bool
		view    *models.AttendanceView
	)
	err = s.repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		event, created, err = s.resolver.Resolve(ctx, class, now, day)
		if err != nil {
			return err
		}

		existing, err := s.dedup.Check(ctx, user, event, day)
		if err != nil {
			return errStorage("check existing attendance", err)
		}
		if existing != nil {
			held, err := s.heldEvent(ctx, existing, event, created)
			if err != nil {
				return err
			}
			return s.alreadyCheckedIn(existing, held)
		}

		view, err = s.recorder.Record(ctx, user, event, now, day)
		return err
	})

	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent scan by the same user took the slot between the
		// check and the insert.
		existing, ferr := s.dedup.Holder(ctx, user, event, day)
		if ferr != nil {
			return nil, errStorage("check existing attendance", ferr)
		}
		if existing == nil {
			return nil, errStorage("record attendance", err)
		}
		held, herr := s.heldEvent(ctx, existing, event, created)
		if herr != nil {
			return nil, herr
		}
		return nil, s.alreadyCheckedIn(existing, held)
	}
	if err != nil {
		var se *ScanError
		if !errors.As(err, &se) {
			err = errStorage("record attendance", err)
		}
		return nil, err
	}

	return &models.ScanResult{
		Attendance:      view,
		IsSharedBarcode: isShared(class),
		EventCreated:    created,
		ScanTime:        now,
	}, nil
}

// heldEvent returns the event the existing record belongs to. An event created
// by this scan is rolled back with the transaction and never reported.
func (s *attendanceService) heldEvent(ctx context.Context, existing *models.AttendanceRecord, event *models.Event, created bool) (*models.Event, error) {
	if !created || existing.EventID == event.ID {
		return event, nil
	}
	held, err := s.repos.Event.GetByID(ctx, existing.EventID)
	if err != nil {
		return nil, errStorage("load checked-in event", err)
	}
	return held, nil
}

func (s *attendanceService) alreadyCheckedIn(existing *models.AttendanceRecord, event *models.Event) *ScanError {
	return errAlreadyCheckedIn(existing, event, existing.Timestamp.In(s.loc).Format("15:04"))
}

func (s *attendanceService) logFailure(req *models.ScanRequest, err error) {
	var event *zerolog.Event
	switch KindOf(err) {
	case KindStorageFailure:
		event = s.log.Error().Err(err)
	case KindAlreadyCheckedIn:
		event = s.log.Info()
	default:
		event = s.log.Debug().Str("reason", err.Error())
	}
	event.
		Str("barcode", req.ScannedBarcode).
		Str("kind", string(KindOf(err))).
		Msg("Scan not recorded")
}

// List returns one page of attendance history visible to viewer. Members
// only see their own rows.
func (s *attendanceService) List(ctx context.Context, viewer *models.User, filter models.AttendanceFilter) (*models.AttendancePage, error) {
	if viewer == nil {
		return nil, ErrUnauthenticated("authentication required")
	}
	if !viewer.CanViewAll() {
		filter.UserID = viewer.ID
	}

	total, err := s.repos.Attendance.Count(ctx, filter)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count attendance")
		return nil, errStorage("count attendance", err)
	}

	rows, err := s.repos.Attendance.List(ctx, filter)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list attendance")
		return nil, errStorage("list attendance", err)
	}

	totalPages := 0
	if filter.Limit > 0 {
		totalPages = (total + filter.Limit - 1) / filter.Limit
	}

	return &models.AttendancePage{
		Data: rows,
		Pagination: models.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Location returns the calendar location used for day boundaries
func (s *attendanceService) Location() *time.Location {
	return s.loc
}

func isShared(c Classification) bool {
	_, ok := c.(SharedClassification)
	return ok
}
