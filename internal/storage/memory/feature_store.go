package memory

import (
	"context"
	"sync"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// FeatureStore is an in-memory implementation of storage.FeatureStore.
type FeatureStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.FeatureValue // keyed by instrument_id
}

// NewFeatureStore creates a new in-memory feature store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{
		data: make(map[string][]*domain.FeatureValue),
	}
}

// Replace swaps all values of one instrument.
func (s *FeatureStore) Replace(_ context.Context, instrumentID string, values []*domain.FeatureValue) error {
	if err := storage.ValidateFeatureValues(instrumentID, values); err != nil {
		return err
	}

	stored := make([]*domain.FeatureValue, len(values))
	for i, v := range values {
		stored[i] = copyValue(v)
	}
	storage.SortFeatureValues(stored)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(stored) == 0 {
		delete(s.data, instrumentID)
		return nil
	}
	s.data[instrumentID] = stored
	return nil
}

// GetByInstrument retrieves all values for an instrument, ordered by date, feature ASC.
func (s *FeatureStore) GetByInstrument(_ context.Context, instrumentID string) ([]*domain.FeatureValue, error) {
	return s.filter(instrumentID, func(*domain.FeatureValue) bool { return true }), nil
}

// GetByDateRange retrieves values for an instrument within [start, end] (inclusive).
func (s *FeatureStore) GetByDateRange(_ context.Context, instrumentID string, start, end time.Time) ([]*domain.FeatureValue, error) {
	start, end = domain.Date(start), domain.Date(end)
	return s.filter(instrumentID, func(v *domain.FeatureValue) bool {
		return !v.Date.Before(start) && !v.Date.After(end)
	}), nil
}

func (s *FeatureStore) filter(instrumentID string, keep func(*domain.FeatureValue) bool) []*domain.FeatureValue {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FeatureValue
	for _, v := range s.data[instrumentID] {
		if keep(v) {
			result = append(result, copyValue(v))
		}
	}
	return result
}

func copyValue(v *domain.FeatureValue) *domain.FeatureValue {
	c := *v
	c.Value = copyFloat(v.Value)
	return &c
}

var _ storage.FeatureStore = (*FeatureStore)(nil)
