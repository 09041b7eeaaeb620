package ranking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mizuki-t/kanata/internal/model"
)

// MemoryStore is an in-memory Store with the same semantics as the SQLite
// backend. It backs tests and keeps the ranking authoritative for the rest of
// the process when a durable write fails.
type MemoryStore struct {
	mu          sync.Mutex
	now         func() time.Time
	day         string
	entries     []model.Entry
	lastEntryID string
	tally       map[string]int
}

// NewMemoryStore builds a MemoryStore on the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock allows deterministic day keys in tests.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now, tally: map[string]int{}}
}

func (s *MemoryStore) ensureDayLocked() {
	today := DayKey(s.now())
	if s.day == today {
		return
	}
	s.day = today
	s.entries = nil
	s.lastEntryID = ""
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked()
	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Record implements Store.
func (s *MemoryStore) Record(_ context.Context, entry model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked()
	entry.Name = TrimName(entry.Name)
	s.entries = append(s.entries, entry)
	Rank(s.entries)
	if len(s.entries) > Cap {
		s.entries = s.entries[:Cap]
	}
	s.lastEntryID = entry.ID
	return nil
}

// Rename implements Store.
func (s *MemoryStore) Rename(_ context.Context, id, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Name = TrimName(newName)
			return nil
		}
	}
	return ErrEntryNotFound
}

// LastEntryID implements Store.
func (s *MemoryStore) LastEntryID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureDayLocked()
	return s.lastEntryID, nil
}

// AddTally implements Store.
func (s *MemoryStore) AddTally(_ context.Context, correct int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tally[DayKey(s.now())] += correct
	return nil
}

// Tally implements Store.
func (s *MemoryStore) Tally(_ context.Context, lastN int) ([]model.TallyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lastN <= 0 {
		return nil, nil
	}
	days := make([]string, 0, len(s.tally))
	for day := range s.tally {
		days = append(days, day)
	}
	// Newest first; day keys sort lexicographically.
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if lastN < len(days) {
		days = days[:lastN]
	}
	out := make([]model.TallyRow, 0, len(days))
	for _, day := range days {
		out = append(out, model.TallyRow{Day: day, TotalCorrect: s.tally[day]})
	}
	return out, nil
}
