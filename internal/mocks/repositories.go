package mocks

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/attendance-api/internal/models"
	"github.com/attendance-api/internal/repository"
)

// Verify interface compliance
var (
	_ repository.UserRepository       = (*MockUserRepository)(nil)
	_ repository.BarcodeRepository    = (*MockBarcodeRepository)(nil)
	_ repository.EventRepository      = (*MockEventRepository)(nil)
	_ repository.AttendanceRepository = (*MockAttendanceRepository)(nil)
	_ repository.TxRunner             = (*MockTxRunner)(nil)
)

// MockSession is an opaque session token owned by a user
type MockSession struct {
	UserID    string
	ExpiresAt time.Time
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mu       sync.RWMutex
	Users    map[string]*models.User
	Sessions map[string]MockSession
	Err      error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		Users:    make(map[string]*models.User),
		Sessions: make(map[string]MockSession),
	}
}

// AddUser stores user
func (m *MockUserRepository) AddUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.ID] = user
}

// AddSession issues token for userID until expiresAt
func (m *MockUserRepository) AddSession(token, userID string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sessions[token] = MockSession{UserID: userID, ExpiresAt: expiresAt}
}

// Get returns the stored user with id
func (m *MockUserRepository) Get(id string) *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Users[id]
}

func (m *MockUserRepository) GetActiveByBarcode(ctx context.Context, barcode string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.Users {
		if u.BarcodeID == barcode && u.Active {
			return u, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) GetActiveBySessionToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.Sessions[token]
	if !ok || !session.ExpiresAt.After(now) {
		return nil, nil
	}
	user := m.Users[session.UserID]
	if user == nil || !user.Active {
		return nil, nil
	}
	return user, nil
}

// MockBarcodeRepository is a mock implementation of BarcodeRepository
type MockBarcodeRepository struct {
	mu             sync.RWMutex
	Entries        []models.EventTypeBarcode
	Stats          []models.SharedBarcodeStats
	ListActiveFunc func(ctx context.Context) ([]models.EventTypeBarcode, error)
	Err            error
	listCalls      atomic.Int64
}

// NewMockBarcodeRepository creates a directory holding entries
func NewMockBarcodeRepository(entries ...models.EventTypeBarcode) *MockBarcodeRepository {
	return &MockBarcodeRepository{Entries: entries}
}

// SetEntries replaces the directory contents
func (m *MockBarcodeRepository) SetEntries(entries ...models.EventTypeBarcode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = entries
}

// ListActiveCalls returns how many times ListActive was called
func (m *MockBarcodeRepository) ListActiveCalls() int {
	return int(m.listCalls.Load())
}

func (m *MockBarcodeRepository) ListActive(ctx context.Context) ([]models.EventTypeBarcode, error) {
	m.listCalls.Add(1)
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	active := make([]models.EventTypeBarcode, 0, len(m.Entries))
	for _, e := range m.Entries {
		if e.Active {
			active = append(active, e)
		}
	}
	return active, nil
}

func (m *MockBarcodeRepository) ListWithStats(ctx context.Context) ([]models.SharedBarcodeStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Stats, nil
}

// lookup returns the directory entry for barcode regardless of status
func (m *MockBarcodeRepository) lookup(barcode string) *models.EventTypeBarcode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.Entries {
		if m.Entries[i].Barcode == barcode {
			entry := m.Entries[i]
			return &entry
		}
	}
	return nil
}

// MockEventRepository is a mock implementation of EventRepository.
// CreateShared enforces one active event per shared barcode and day and
// unique individual barcodes, like the database.
type MockEventRepository struct {
	mu     sync.RWMutex
	Events map[string]*models.Event

	// CreateHook runs before CreateShared takes effect
	CreateHook       func(event *models.Event)
	CreateSharedFunc func(ctx context.Context, event *models.Event) (bool, error)
	FindErr          error
	CreateErr        error
	createCalls      atomic.Int64
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{
		Events: make(map[string]*models.Event),
	}
}

// AddEvent stores event without any uniqueness check
func (m *MockEventRepository) AddEvent(event *models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[event.ID] = event
}

// CreateCalls returns how many times CreateShared was called
func (m *MockEventRepository) CreateCalls() int {
	return int(m.createCalls.Load())
}

// Count returns the number of stored events
func (m *MockEventRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Events)
}

// SharedEvents returns the stored events spawned from sharedBarcode
func (m *MockEventRepository) SharedEvents(sharedBarcode string) []*models.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var events []*models.Event
	for _, e := range m.Events {
		if e.SharedBarcode != nil && *e.SharedBarcode == sharedBarcode {
			events = append(events, e)
		}
	}
	return events
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Events[id], nil
}

func (m *MockEventRepository) FindSharedInWindow(ctx context.Context, sharedBarcode string, start, end time.Time) (*models.Event, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Event
	for _, e := range m.Events {
		if !e.Active || e.SharedBarcode == nil || *e.SharedBarcode != sharedBarcode {
			continue
		}
		if e.ScheduledAt.Before(start) || !e.ScheduledAt.Before(end) {
			continue
		}
		if found == nil || e.ScheduledAt.After(found.ScheduledAt) {
			found = e
		}
	}
	return found, nil
}

func (m *MockEventRepository) FindActiveByBarcode(ctx context.Context, barcode string) (*models.Event, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Event
	foundDirect := false
	for _, e := range m.Events {
		if !e.Active {
			continue
		}
		direct := e.Barcode == barcode
		if !direct && (e.SharedBarcode == nil || *e.SharedBarcode != barcode) {
			continue
		}
		switch {
		case found == nil,
			direct && !foundDirect,
			direct == foundDirect && e.ScheduledAt.After(found.ScheduledAt):
			found, foundDirect = e, direct
		}
	}
	return found, nil
}

func (m *MockEventRepository) CreateShared(ctx context.Context, event *models.Event) (bool, error) {
	m.createCalls.Add(1)
	if m.CreateHook != nil {
		m.CreateHook(event)
	}
	if m.CreateSharedFunc != nil {
		return m.CreateSharedFunc(ctx, event)
	}
	if m.CreateErr != nil {
		return false, m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	day := event.ScheduledDay.Format("2006-01-02")
	for _, e := range m.Events {
		if e.Active && e.IsShared() && event.IsShared() &&
			*e.SharedBarcode == *event.SharedBarcode &&
			e.ScheduledDay.Format("2006-01-02") == day {
			return false, nil
		}
		if e.Barcode == event.Barcode {
			return false, repository.ErrDuplicate
		}
	}

	stored := *event
	stored.Active = true
	m.Events[event.ID] = &stored
	event.Active = true
	return true, nil
}

// MockAttendanceRepository is a mock implementation of AttendanceRepository.
// Create enforces one row per user, dedup scope and day. Joins for GetView
// and List read from the linked user, event and barcode mocks.
type MockAttendanceRepository struct {
	mu      sync.RWMutex
	Records map[string]*models.AttendanceRecord

	Users    *MockUserRepository
	Events   *MockEventRepository
	Barcodes *MockBarcodeRepository

	// CreateHook runs before Create takes effect
	CreateHook func(record *models.AttendanceRecord)
	CreateErr  error
	FindErr    error
	ListErr    error
}

func NewMockAttendanceRepository(users *MockUserRepository, events *MockEventRepository, barcodes *MockBarcodeRepository) *MockAttendanceRepository {
	return &MockAttendanceRepository{
		Records:  make(map[string]*models.AttendanceRecord),
		Users:    users,
		Events:   events,
		Barcodes: barcodes,
	}
}

// AddRecord stores record without any uniqueness check
func (m *MockAttendanceRepository) AddRecord(record *models.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records[record.ID] = record
}

// Len returns the number of stored rows
func (m *MockAttendanceRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Records)
}

// ForUser returns the stored rows of userID
func (m *MockAttendanceRepository) ForUser(userID string) []*models.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.AttendanceRecord
	for _, r := range m.Records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func (m *MockAttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if m.CreateHook != nil {
		m.CreateHook(record)
	}
	if m.CreateErr != nil {
		return m.CreateErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.UserID == record.UserID && r.DedupScope == record.DedupScope && sameDay(r.AttendanceDay, record.AttendanceDay) {
			return repository.ErrDuplicate
		}
	}
	stored := *record
	m.Records[record.ID] = &stored
	return nil
}

func (m *MockAttendanceRepository) FindInSharedScope(ctx context.Context, userID, sharedBarcode string, start, end time.Time) (*models.AttendanceRecord, error) {
	return m.findFirst(userID, start, end, func(e *models.Event) bool {
		return e.Active && e.SharedBarcode != nil && *e.SharedBarcode == sharedBarcode
	})
}

func (m *MockAttendanceRepository) FindInEventScope(ctx context.Context, userID, eventID string, start, end time.Time) (*models.AttendanceRecord, error) {
	return m.findFirst(userID, start, end, func(e *models.Event) bool {
		return e.ID == eventID
	})
}

func (m *MockAttendanceRepository) findFirst(userID string, start, end time.Time, match func(*models.Event) bool) (*models.AttendanceRecord, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.AttendanceRecord
	for _, r := range m.Records {
		if r.UserID != userID || r.Timestamp.Before(start) || !r.Timestamp.Before(end) {
			continue
		}
		event, _ := m.Events.GetByID(context.Background(), r.EventID)
		if event == nil || !match(event) {
			continue
		}
		if found == nil || r.Timestamp.Before(found.Timestamp) {
			found = r
		}
	}
	return found, nil
}

func (m *MockAttendanceRepository) FindByScope(ctx context.Context, userID, scope string, day time.Time) (*models.AttendanceRecord, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.Records {
		if r.UserID == userID && r.DedupScope == scope && sameDay(r.AttendanceDay, day) {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockAttendanceRepository) GetView(ctx context.Context, id string) (*models.AttendanceView, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	m.mu.RLock()
	record := m.Records[id]
	m.mu.RUnlock()
	if record == nil {
		return nil, nil
	}
	return m.view(ctx, record), nil
}

func (m *MockAttendanceRepository) view(ctx context.Context, r *models.AttendanceRecord) *models.AttendanceView {
	v := &models.AttendanceView{
		ID:        r.ID,
		UserID:    r.UserID,
		EventID:   r.EventID,
		Status:    r.Status,
		Timestamp: r.Timestamp,
	}
	if user := m.Users.Get(r.UserID); user != nil {
		v.UserName = user.Name
		v.UserBarcode = user.BarcodeID
	}
	if event, _ := m.Events.GetByID(ctx, r.EventID); event != nil {
		v.EventName = event.Name
		v.EventType = event.Type
		v.EventDate = event.ScheduledAt
		v.SharedBarcode = event.SharedBarcode
		if event.SharedBarcode != nil && m.Barcodes != nil {
			if entry := m.Barcodes.lookup(*event.SharedBarcode); entry != nil {
				name := entry.DisplayName
				v.TypeDisplayName = &name
			}
		}
	}
	return v
}

func (m *MockAttendanceRepository) filter(f models.AttendanceFilter) []*models.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.AttendanceRecord
	for _, r := range m.Records {
		if f.UserID != "" && r.UserID != f.UserID {
			continue
		}
		if f.EventID != "" && r.EventID != f.EventID {
			continue
		}
		day := r.AttendanceDay.Format("2006-01-02")
		if f.FromDay != nil && day < f.FromDay.Format("2006-01-02") {
			continue
		}
		if f.ToDay != nil && day > f.ToDay.Format("2006-01-02") {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

func (m *MockAttendanceRepository) List(ctx context.Context, f models.AttendanceFilter) ([]models.AttendanceView, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	rows := m.filter(f)

	start := f.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}

	views := make([]models.AttendanceView, 0, end-start)
	for _, r := range rows[start:end] {
		views = append(views, *m.view(ctx, r))
	}
	return views, nil
}

func (m *MockAttendanceRepository) Count(ctx context.Context, f models.AttendanceFilter) (int, error) {
	if m.ListErr != nil {
		return 0, m.ListErr
	}
	return len(m.filter(f)), nil
}

// MockTxRunner runs functions directly, without isolation between callers
type MockTxRunner struct {
	Err   error
	calls atomic.Int64
}

// Calls returns how many transactions were started
func (m *MockTxRunner) Calls() int {
	return int(m.calls.Load())
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls.Add(1)
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx)
}

// MockStore bundles linked repository mocks
type MockStore struct {
	Users      *MockUserRepository
	Barcodes   *MockBarcodeRepository
	Events     *MockEventRepository
	Attendance *MockAttendanceRepository
	Tx         *MockTxRunner
}

// NewMockStore creates linked mocks with directory holding entries
func NewMockStore(entries ...models.EventTypeBarcode) *MockStore {
	users := NewMockUserRepository()
	barcodes := NewMockBarcodeRepository(entries...)
	events := NewMockEventRepository()
	return &MockStore{
		Users:      users,
		Barcodes:   barcodes,
		Events:     events,
		Attendance: NewMockAttendanceRepository(users, events, barcodes),
		Tx:         &MockTxRunner{},
	}
}

// Repositories exposes the mocks as a repository bundle
func (s *MockStore) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:       s.Users,
		Barcode:    s.Barcodes,
		Event:      s.Events,
		Attendance: s.Attendance,
		Tx:         s.Tx,
	}
}
