// Package storage defines persistence interfaces for raw, adjusted and feature data.
package storage

import (
	"context"
	"time"

	"equity-feature-lab/internal/domain"
)

// DailyRecordStore persists raw daily records. Append-only.
type DailyRecordStore interface {
	// InsertBulk adds multiple records atomically. Fails entire batch on duplicate (instrument, date).
	InsertBulk(ctx context.Context, records []*domain.DailyRecord) error

	// GetByInstrument retrieves all records for an instrument, ordered by date ASC.
	GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.DailyRecord, error)

	// GetByDateRange retrieves records for an instrument within [start, end] (inclusive), ordered by date ASC.
	GetByDateRange(ctx context.Context, instrumentID string, start, end time.Time) ([]*domain.DailyRecord, error)

	// ListInstruments returns all instrument ids with at least one record, sorted.
	ListInstruments(ctx context.Context) ([]string, error)
}

// AdjustedPriceStore persists adjusted series. A series is replaced as a whole on recomputation.
type AdjustedPriceStore interface {
	// Replace atomically swaps the stored series of one instrument for records.
	Replace(ctx context.Context, instrumentID string, records []*domain.AdjustedRecord) error

	// GetByInstrument retrieves the series for an instrument, ordered by date ASC.
	GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.AdjustedRecord, error)
}

// FeatureStore persists feature values in long format (instrument, date, feature).
type FeatureStore interface {
	// Replace atomically swaps all stored values of one instrument for values.
	Replace(ctx context.Context, instrumentID string, values []*domain.FeatureValue) error

	// GetByInstrument retrieves all values for an instrument, ordered by date, feature ASC.
	GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.FeatureValue, error)

	// GetByDateRange retrieves values for an instrument within [start, end] (inclusive).
	GetByDateRange(ctx context.Context, instrumentID string, start, end time.Time) ([]*domain.FeatureValue, error)
}
