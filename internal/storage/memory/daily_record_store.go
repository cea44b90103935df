package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// DailyRecordStore is an in-memory implementation of storage.DailyRecordStore.
type DailyRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DailyRecord // keyed by (instrument_id, date)
}

// NewDailyRecordStore creates a new in-memory daily record store.
func NewDailyRecordStore() *DailyRecordStore {
	return &DailyRecordStore{
		data: make(map[string]*domain.DailyRecord),
	}
}

// dailyKey generates a unique key for an instrument date.
func dailyKey(instrumentID string, date time.Time) string {
	return fmt.Sprintf("%s|%s", instrumentID, date.Format(domain.DateLayout))
}

// InsertBulk adds multiple records. Fails entire batch on duplicate.
func (s *DailyRecordStore) InsertBulk(_ context.Context, records []*domain.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))

	// First pass: check for duplicates (existing + intra-batch)
	for _, r := range records {
		if r == nil || r.InstrumentID == "" || r.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		key := dailyKey(r.InstrumentID, r.Date)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, r := range records {
		recordCopy := copyDaily(r)
		s.data[dailyKey(r.InstrumentID, r.Date)] = recordCopy
	}

	return nil
}

// GetByInstrument retrieves all records for an instrument, ordered by date ASC.
func (s *DailyRecordStore) GetByInstrument(_ context.Context, instrumentID string) ([]*domain.DailyRecord, error) {
	return s.filter(func(r *domain.DailyRecord) bool {
		return r.InstrumentID == instrumentID
	}), nil
}

// GetByDateRange retrieves records for an instrument within [start, end] (inclusive).
func (s *DailyRecordStore) GetByDateRange(_ context.Context, instrumentID string, start, end time.Time) ([]*domain.DailyRecord, error) {
	start, end = domain.Date(start), domain.Date(end)
	return s.filter(func(r *domain.DailyRecord) bool {
		return r.InstrumentID == instrumentID && !r.Date.Before(start) && !r.Date.After(end)
	}), nil
}

// ListInstruments returns all instrument ids, sorted.
func (s *DailyRecordStore) ListInstruments(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, r := range s.data {
		seen[r.InstrumentID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *DailyRecordStore) filter(keep func(*domain.DailyRecord) bool) []*domain.DailyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.DailyRecord
	for _, r := range s.data {
		if keep(r) {
			result = append(result, copyDaily(r))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result
}

func copyDaily(r *domain.DailyRecord) *domain.DailyRecord {
	c := *r
	c.Bid = copyFloat(r.Bid)
	c.Ask = copyFloat(r.Ask)
	c.Volume = copyFloat(r.Volume)
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ storage.DailyRecordStore = (*DailyRecordStore)(nil)
