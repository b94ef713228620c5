package bookings

import (
	"sync"

	"github.com/routex/fleetlive/core/model"
)

// MemoryStore keeps bookings in memory, newest first per user. It is the
// default persistence collaborator for tests and single-run sessions.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]model.BookingRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]model.BookingRecord{}}
}

// Append prepends the record to the user's list.
func (s *MemoryStore) Append(userID string, rec model.BookingRecord) error {
	s.mu.Lock()
	s.data[userID] = append([]model.BookingRecord{rec}, s.data[userID]...)
	s.mu.Unlock()
	return nil
}

// List returns a copy of the user's records, newest first.
func (s *MemoryStore) List(userID string) ([]model.BookingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.data[userID]
	out := make([]model.BookingRecord, len(recs))
	copy(out, recs)
	return out, nil
}
