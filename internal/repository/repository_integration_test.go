//go:build integration

package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/attendance-api/internal/metrics"
	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
	"github.com/attendance-api/internal/service"
	"github.com/attendance-api/pkg/testutil/containers"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositorySuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	repos *repository.Repositories
	loc   *time.Location
	ctx   context.Context
}

func TestRepositorySuite(t *testing.T) {
	s := &RepositorySuite{pg: containers.NewPostgresContainer(t)}
	suite.Run(t, s)
}

func (s *RepositorySuite) SetupSuite() {
	loc, err := time.LoadLocation("Africa/Cairo")
	s.Require().NoError(err)
	s.loc = loc
	s.ctx = context.Background()
	s.repos = repository.New(s.pg.DB)
}

func (s *RepositorySuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx))
}

func (s *RepositorySuite) addUser(barcode string, role models.Role, active bool) *models.User {
	u := &models.User{
		ID:        uuid.NewString(),
		Name:      "User " + barcode,
		Email:     barcode + "@example.org",
		Role:      role,
		BarcodeID: barcode,
		Active:    active,
	}
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO users (id, name, email, role, barcode_id, is_active) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.Role, u.BarcodeID, u.Active)
	s.Require().NoError(err)
	return u
}

func (s *RepositorySuite) addEvent(barcode string, shared *string, at time.Time) *models.Event {
	e := &models.Event{
		ID:            uuid.NewString(),
		Name:          "Event " + barcode,
		Type:          models.EventTypeMeeting,
		ScheduledAt:   at,
		ScheduledDay:  service.DayWindowAt(at, s.loc).Start,
		Barcode:       barcode,
		SharedBarcode: shared,
		Active:        true,
	}
	_, err := s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO events (id, name, type, scheduled_at, scheduled_day, barcode, shared_barcode)
		 VALUES ($1, $2, $3, $4, $5::date, $6, $7)`,
		e.ID, e.Name, e.Type, e.ScheduledAt, e.ScheduledDay.Format("2006-01-02"), e.Barcode, e.SharedBarcode)
	s.Require().NoError(err)
	return e
}

func (s *RepositorySuite) dailyEvent(shared string, at time.Time) *models.Event {
	return &models.Event{
		ID:            uuid.NewString(),
		Name:          shared + " daily",
		Type:          models.EventTypeMass,
		ScheduledAt:   at,
		ScheduledDay:  service.DayWindowAt(at, s.loc).Start,
		Barcode:       fmt.Sprintf("%s_%s", shared, uuid.NewString()[:8]),
		SharedBarcode: &shared,
		CreatedAt:     at,
	}
}

func (s *RepositorySuite) TestSeededDirectory() {
	entries, err := s.repos.Barcode.ListActive(s.ctx)
	s.Require().NoError(err)
	s.Len(entries, 4)

	barcodes := map[string]models.EventType{}
	for _, e := range entries {
		barcodes[e.Barcode] = e.EventType
	}
	s.Equal(models.EventTypeMass, barcodes["MASS_SHARED"])
	s.Equal(models.EventTypeTasbeha, barcodes["TASBEHA_SHARED"])
}

func (s *RepositorySuite) TestUserLookups() {
	active := s.addUser("USER_A", models.RoleMember, true)
	s.addUser("USER_OFF", models.RoleMember, false)

	u, err := s.repos.User.GetActiveByBarcode(s.ctx, "USER_A")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.Equal(active.ID, u.ID)

	u, err = s.repos.User.GetActiveByBarcode(s.ctx, "USER_OFF")
	s.Require().NoError(err)
	s.Nil(u)

	now := time.Now()
	_, err = s.pg.DB.ExecContext(s.ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ('live', $1, $2), ('stale', $1, $3)`,
		active.ID, now.Add(time.Hour), now.Add(-time.Hour))
	s.Require().NoError(err)

	u, err = s.repos.User.GetActiveBySessionToken(s.ctx, "live", now)
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.Equal(active.ID, u.ID)

	u, err = s.repos.User.GetActiveBySessionToken(s.ctx, "stale", now)
	s.Require().NoError(err)
	s.Nil(u)
}

func (s *RepositorySuite) TestCreateSharedIsUniquePerDay() {
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, s.loc)

	first := s.dailyEvent("MASS_SHARED", at)
	created, err := s.repos.Event.CreateShared(s.ctx, first)
	s.Require().NoError(err)
	s.True(created)

	second := s.dailyEvent("MASS_SHARED", at.Add(time.Hour))
	created, err = s.repos.Event.CreateShared(s.ctx, second)
	s.Require().NoError(err)
	s.False(created)

	window := service.DayWindowAt(at, s.loc)
	found, err := s.repos.Event.FindSharedInWindow(s.ctx, "MASS_SHARED", window.Start, window.End)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(first.ID, found.ID)
	s.Equal("2026-01-10", found.ScheduledDay.Format("2006-01-02"))

	// Next local day is a separate slot
	created, err = s.repos.Event.CreateShared(s.ctx, s.dailyEvent("MASS_SHARED", at.Add(24*time.Hour)))
	s.Require().NoError(err)
	s.True(created)
}

func (s *RepositorySuite) TestCreateSharedDuplicateBarcode() {
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, s.loc)
	existing := s.addEvent("TAKEN", nil, at)

	ev := s.dailyEvent("MASS_SHARED", at)
	ev.Barcode = existing.Barcode
	_, err := s.repos.Event.CreateShared(s.ctx, ev)
	s.ErrorIs(err, repository.ErrDuplicate)
}

func (s *RepositorySuite) TestFindActiveByBarcodePrefersIndividualMatch() {
	shared := "MEETING_SHARED"
	at := time.Date(2026, 1, 10, 18, 0, 0, 0, s.loc)
	s.addEvent("MEETING_SHARED_20260110_180000", &shared, at)
	direct := s.addEvent("MEETING_SHARED", nil, at.Add(-72*time.Hour))

	found, err := s.repos.Event.FindActiveByBarcode(s.ctx, "MEETING_SHARED")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(direct.ID, found.ID)

	none, err := s.repos.Event.FindActiveByBarcode(s.ctx, "UNKNOWN")
	s.Require().NoError(err)
	s.Nil(none)
}

func (s *RepositorySuite) TestAttendanceUniquenessAndScopes() {
	user := s.addUser("USER_A", models.RoleMember, true)
	at := time.Date(2026, 1, 10, 9, 0, 0, 0, s.loc)
	event := s.dailyEvent("MASS_SHARED", at)
	_, err := s.repos.Event.CreateShared(s.ctx, event)
	s.Require().NoError(err)

	day := service.DayWindowAt(at, s.loc)
	record := &models.AttendanceRecord{
		ID: uuid.NewString(), UserID: user.ID, EventID: event.ID,
		Status: models.AttendanceStatusPresent, Timestamp: at,
		AttendanceDay: day.Start, DedupScope: event.DedupScope(),
	}
	s.Require().NoError(s.repos.Attendance.Create(s.ctx, record))

	dup := *record
	dup.ID = uuid.NewString()
	dup.Timestamp = at.Add(time.Hour)
	s.ErrorIs(s.repos.Attendance.Create(s.ctx, &dup), repository.ErrDuplicate)

	found, err := s.repos.Attendance.FindInSharedScope(s.ctx, user.ID, "MASS_SHARED", day.Start, day.End)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(record.ID, found.ID)

	found, err = s.repos.Attendance.FindInEventScope(s.ctx, user.ID, event.ID, day.Start, day.End)
	s.Require().NoError(err)
	s.Require().NotNil(found)

	holder, err := s.repos.Attendance.FindByScope(s.ctx, user.ID, "shared:MASS_SHARED", day.Start)
	s.Require().NoError(err)
	s.Require().NotNil(holder)
	s.Equal(record.ID, holder.ID)

	view, err := s.repos.Attendance.GetView(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Require().NotNil(view)
	s.Equal(user.Name, view.UserName)
	s.Require().NotNil(view.TypeDisplayName)
	s.Require().NotNil(view.SharedBarcode)
	s.Equal("MASS_SHARED", *view.SharedBarcode)

	next := service.DayWindowAt(at.Add(24*time.Hour), s.loc)
	found, err = s.repos.Attendance.FindInSharedScope(s.ctx, user.ID, "MASS_SHARED", next.Start, next.End)
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *RepositorySuite) TestListAndCount() {
	a := s.addUser("USER_A", models.RoleMember, true)
	b := s.addUser("USER_B", models.RoleMember, true)
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, s.loc)

	var dayTen time.Time
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		event := s.addEvent(fmt.Sprintf("EVT_%d", i), nil, at)
		day := service.DayWindowAt(at, s.loc).Start
		if i == 0 {
			dayTen = day
		}
		for _, u := range []*models.User{a, b} {
			s.Require().NoError(s.repos.Attendance.Create(s.ctx, &models.AttendanceRecord{
				ID: uuid.NewString(), UserID: u.ID, EventID: event.ID,
				Status: models.AttendanceStatusPresent, Timestamp: at,
				AttendanceDay: day, DedupScope: event.DedupScope(),
			}))
		}
	}

	total, err := s.repos.Attendance.Count(s.ctx, models.AttendanceFilter{})
	s.Require().NoError(err)
	s.Equal(6, total)

	filter := models.AttendanceFilter{UserID: a.ID, Page: 1, Limit: 2}
	total, err = s.repos.Attendance.Count(s.ctx, filter)
	s.Require().NoError(err)
	s.Equal(3, total)

	rows, err := s.repos.Attendance.List(s.ctx, filter)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.True(rows[0].Timestamp.After(rows[1].Timestamp))
	s.Equal("Event EVT_2", rows[0].EventName)

	from := dayTen.AddDate(0, 0, 1)
	to := from
	total, err = s.repos.Attendance.Count(s.ctx, models.AttendanceFilter{FromDay: &from, ToDay: &to})
	s.Require().NoError(err)
	s.Equal(2, total)
}

// TestConcurrentScans drives the full scan path against PostgreSQL
func (s *RepositorySuite) TestConcurrentScans() {
	const crowd = 25
	for i := 0; i < crowd; i++ {
		s.addUser(fmt.Sprintf("CROWD_%02d", i), models.RoleMember, true)
	}

	log := zerolog.Nop()
	m := metrics.New()
	directory := service.NewBarcodeDirectory(s.repos.Barcode, nil, time.Minute, m, log)
	identity := service.NewIdentityService(s.repos.User, time.Now, log)
	svc := service.NewAttendanceService(s.repos, identity, directory, service.AttendanceOptions{Location: s.loc}, m, log)

	var wg sync.WaitGroup
	errs := make([]error, crowd*2)
	for i := 0; i < crowd; i++ {
		// Every user scans twice at once
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(slot int, barcode string) {
				defer wg.Done()
				_, errs[slot] = svc.Scan(s.ctx, &models.ScanRequest{ScannedBarcode: "MASS_SHARED", PersonalBarcode: barcode})
			}(i*2+j, fmt.Sprintf("CROWD_%02d", i))
		}
	}
	wg.Wait()

	succeeded, duplicates := 0, 0
	for _, err := range errs {
		switch service.KindOf(err) {
		case service.KindAlreadyCheckedIn:
			duplicates++
		default:
			if s.NoError(err) {
				succeeded++
			}
		}
	}
	s.Equal(crowd, succeeded)
	s.Equal(crowd, duplicates)

	var events, rows int
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx,
		`SELECT COUNT(*) FROM events WHERE shared_barcode = 'MASS_SHARED'`).Scan(&events))
	s.Require().NoError(s.pg.DB.QueryRowContext(s.ctx, `SELECT COUNT(*) FROM attendance`).Scan(&rows))
	s.Equal(1, events)
	s.Equal(crowd, rows)
}

func TestDateParamsIgnoreSessionTimeZone(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	_, err := pg.DB.ExecContext(ctx, `ALTER DATABASE attendance_test SET timezone TO 'Pacific/Kiritimati'`)
	require.NoError(t, err)
	pg.DB.SetMaxIdleConns(0)

	loc, err := time.LoadLocation("Africa/Cairo")
	require.NoError(t, err)
	repos := repository.New(pg.DB)

	shared := "MASS_SHARED"
	at := time.Date(2026, 1, 10, 23, 30, 0, 0, loc)
	ev := &models.Event{
		ID: uuid.NewString(), Name: "late", Type: models.EventTypeMass,
		ScheduledAt: at, ScheduledDay: service.DayWindowAt(at, loc).Start,
		Barcode: "MASS_SHARED_LATE", SharedBarcode: &shared, CreatedAt: at,
	}
	created, err := repos.Event.CreateShared(ctx, ev)
	require.NoError(t, err)
	require.True(t, created)

	var day string
	require.NoError(t, pg.DB.QueryRowContext(ctx,
		`SELECT scheduled_day::text FROM events WHERE id = $1`, ev.ID).Scan(&day))
	assert.Equal(t, "2026-01-10", day)
}
