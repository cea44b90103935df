package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using PostgreSQL.
type FeatureStore struct {
	pool *Pool
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(pool *Pool) *FeatureStore {
	return &FeatureStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// Replace deletes all values of the instrument and copies in values within one transaction.
func (s *FeatureStore) Replace(ctx context.Context, instrumentID string, values []*domain.FeatureValue) (err error) {
	if err := storage.ValidateFeatureValues(instrumentID, values); err != nil {
		return err
	}
	defer func(start time.Time) { observe("replace_feature_values", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM feature_values WHERE instrument_id = $1`, instrumentID); err != nil {
		return fmt.Errorf("delete feature values: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"feature_values"},
		[]string{"instrument_id", "trade_date", "feature", "value"},
		pgx.CopyFromSlice(len(values), func(i int) ([]any, error) {
			v := values[i]
			return []any{v.InstrumentID, domain.Date(v.Date), v.Feature, v.Value}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy feature values: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByInstrument retrieves all values for an instrument, ordered by date, feature ASC.
func (s *FeatureStore) GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.FeatureValue, error) {
	query := `
		SELECT instrument_id, trade_date, feature, value
		FROM feature_values
		WHERE instrument_id = $1
		ORDER BY trade_date ASC, feature ASC
	`

	rows, err := s.pool.Query(ctx, query, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("query feature values: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

// GetByDateRange retrieves values for an instrument within [start, end] (inclusive).
func (s *FeatureStore) GetByDateRange(ctx context.Context, instrumentID string, start, end time.Time) ([]*domain.FeatureValue, error) {
	query := `
		SELECT instrument_id, trade_date, feature, value
		FROM feature_values
		WHERE instrument_id = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC, feature ASC
	`

	rows, err := s.pool.Query(ctx, query, instrumentID, domain.Date(start), domain.Date(end))
	if err != nil {
		return nil, fmt.Errorf("query feature values by range: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

// scanFeatureValues scans multiple rows.
func scanFeatureValues(rows pgx.Rows) ([]*domain.FeatureValue, error) {
	var values []*domain.FeatureValue
	for rows.Next() {
		var v domain.FeatureValue
		if err := rows.Scan(&v.InstrumentID, &v.Date, &v.Feature, &v.Value); err != nil {
			return nil, fmt.Errorf("scan feature value: %w", err)
		}
		v.Date = domain.Date(v.Date)
		values = append(values, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature values: %w", err)
	}
	return values, nil
}
