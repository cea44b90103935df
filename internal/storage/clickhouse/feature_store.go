package clickhouse

import (
	"context"
	"fmt"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using ClickHouse.
type FeatureStore struct {
	conn *Conn
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(conn *Conn) *FeatureStore {
	return &FeatureStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// Replace deletes the instrument's values with a synchronous mutation, then inserts values in one batch.
func (s *FeatureStore) Replace(ctx context.Context, instrumentID string, values []*domain.FeatureValue) (err error) {
	if err := storage.ValidateFeatureValues(instrumentID, values); err != nil {
		return err
	}
	defer func(start time.Time) { observe("replace_feature_values", start, err) }(time.Now())

	if err := s.conn.Exec(mutationContext(ctx), `ALTER TABLE feature_values DELETE WHERE instrument_id = ?`, instrumentID); err != nil {
		return fmt.Errorf("delete feature values: %w", err)
	}
	if len(values) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO feature_values (instrument_id, trade_date, feature, value)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, v := range values {
		// Pass nil values directly for Nullable columns
		if err := batch.Append(v.InstrumentID, domain.Date(v.Date), v.Feature, v.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByInstrument retrieves all values for an instrument, ordered by date, feature ASC.
func (s *FeatureStore) GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.FeatureValue, error) {
	query := `
		SELECT instrument_id, trade_date, feature, value
		FROM feature_values
		WHERE instrument_id = ?
		ORDER BY trade_date ASC, feature ASC
	`

	rows, err := s.conn.Query(ctx, query, instrumentID)
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
		WHERE instrument_id = ? AND trade_date >= ? AND trade_date <= ?
		ORDER BY trade_date ASC, feature ASC
	`

	rows, err := s.conn.Query(ctx, query, instrumentID, domain.Date(start), domain.Date(end))
	if err != nil {
		return nil, fmt.Errorf("query feature values by range: %w", err)
	}
	defer rows.Close()

	return scanFeatureValues(rows)
}

// scanFeatureValues scans multiple rows.
func scanFeatureValues(rows chRows) ([]*domain.FeatureValue, error) {
	var values []*domain.FeatureValue
	for rows.Next() {
		var v domain.FeatureValue
		if err := rows.Scan(&v.InstrumentID, &v.Date, &v.Feature, &v.Value); err != nil {
			return nil, fmt.Errorf("scan feature values row: %w", err)
		}
		v.Date = domain.Date(v.Date)
		values = append(values, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature values rows: %w", err)
	}
	return values, nil
}
