package memory

import (
	"context"
	"sync"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// AdjustedPriceStore is an in-memory implementation of storage.AdjustedPriceStore.
type AdjustedPriceStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.AdjustedRecord // keyed by instrument_id, ordered by date
}

// NewAdjustedPriceStore creates a new in-memory adjusted price store.
func NewAdjustedPriceStore() *AdjustedPriceStore {
	return &AdjustedPriceStore{
		data: make(map[string][]*domain.AdjustedRecord),
	}
}

// Replace swaps the stored series of one instrument.
func (s *AdjustedPriceStore) Replace(_ context.Context, instrumentID string, records []*domain.AdjustedRecord) error {
	if err := storage.ValidateAdjusted(instrumentID, records); err != nil {
		return err
	}

	series := make([]*domain.AdjustedRecord, len(records))
	for i, r := range records {
		series[i] = copyAdjusted(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(series) == 0 {
		delete(s.data, instrumentID)
		return nil
	}
	s.data[instrumentID] = series
	return nil
}

// GetByInstrument retrieves the series for an instrument, ordered by date ASC.
func (s *AdjustedPriceStore) GetByInstrument(_ context.Context, instrumentID string) ([]*domain.AdjustedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.data[instrumentID]
	result := make([]*domain.AdjustedRecord, len(stored))
	for i, r := range stored {
		result[i] = copyAdjusted(r)
	}
	return result, nil
}

func copyAdjusted(r *domain.AdjustedRecord) *domain.AdjustedRecord {
	c := *r
	c.DailyRecord = *copyDaily(&r.DailyRecord)
	return &c
}

var _ storage.AdjustedPriceStore = (*AdjustedPriceStore)(nil)
