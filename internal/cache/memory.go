package cache

import (
	"context"
	"sync"
	"time"

	"github.com/attendance-api/internal/models"
)

// MemoryStore is an in-process DirectoryStore
type MemoryStore struct {
	mu        sync.RWMutex
	entries   []models.EventTypeBarcode
	expiresAt time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Get returns a copy of the stored snapshot unless it has expired
func (s *MemoryStore) Get(ctx context.Context) ([]models.EventTypeBarcode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.entries == nil || !s.now().Before(s.expiresAt) {
		return nil, ErrMiss
	}
	out := make([]models.EventTypeBarcode, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Set replaces the snapshot
func (s *MemoryStore) Set(ctx context.Context, entries []models.EventTypeBarcode, ttl time.Duration) error {
	snapshot := make([]models.EventTypeBarcode, len(entries))
	copy(snapshot, entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = snapshot
	s.expiresAt = s.now().Add(ttl)
	return nil
}
