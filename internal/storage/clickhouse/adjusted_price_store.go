package clickhouse

import (
	"context"
	"fmt"
	"time"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// AdjustedPriceStore implements storage.AdjustedPriceStore using ClickHouse.
type AdjustedPriceStore struct {
	conn *Conn
}

// NewAdjustedPriceStore creates a new AdjustedPriceStore.
func NewAdjustedPriceStore(conn *Conn) *AdjustedPriceStore {
	return &AdjustedPriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AdjustedPriceStore = (*AdjustedPriceStore)(nil)

// Replace deletes the instrument's rows with a synchronous mutation, then inserts records in one batch.
func (s *AdjustedPriceStore) Replace(ctx context.Context, instrumentID string, records []*domain.AdjustedRecord) (err error) {
	if err := storage.ValidateAdjusted(instrumentID, records); err != nil {
		return err
	}
	defer func(start time.Time) { observe("replace_adjusted_prices", start, err) }(time.Now())

	if err := s.conn.Exec(mutationContext(ctx), `ALTER TABLE adjusted_prices DELETE WHERE instrument_id = ?`, instrumentID); err != nil {
		return fmt.Errorf("delete adjusted prices: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO adjusted_prices (
			instrument_id, trade_date, close, dividend, split_ratio, adj_close, split_factor
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		if err := batch.Append(
			r.InstrumentID, domain.Date(r.Date), r.Close, r.Dividend, r.SplitRatio, r.AdjClose, r.SplitFactor,
		); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByInstrument retrieves the series for an instrument, ordered by date ASC.
func (s *AdjustedPriceStore) GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.AdjustedRecord, error) {
	query := `
		SELECT instrument_id, trade_date, close, dividend, split_ratio, adj_close, split_factor
		FROM adjusted_prices
		WHERE instrument_id = ?
		ORDER BY trade_date ASC
	`

	rows, err := s.conn.Query(ctx, query, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("query adjusted prices: %w", err)
	}
	defer rows.Close()

	return scanAdjusted(rows)
}

// scanAdjusted scans multiple rows.
func scanAdjusted(rows chRows) ([]*domain.AdjustedRecord, error) {
	var records []*domain.AdjustedRecord
	for rows.Next() {
		var r domain.AdjustedRecord
		if err := rows.Scan(
			&r.InstrumentID, &r.Date, &r.Close, &r.Dividend, &r.SplitRatio, &r.AdjClose, &r.SplitFactor,
		); err != nil {
			return nil, fmt.Errorf("scan adjusted prices row: %w", err)
		}
		r.Date = domain.Date(r.Date)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjusted prices rows: %w", err)
	}
	return records, nil
}
