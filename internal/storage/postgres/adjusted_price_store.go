package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// AdjustedPriceStore implements storage.AdjustedPriceStore using PostgreSQL.
type AdjustedPriceStore struct {
	pool *Pool
}

// NewAdjustedPriceStore creates a new AdjustedPriceStore.
func NewAdjustedPriceStore(pool *Pool) *AdjustedPriceStore {
	return &AdjustedPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AdjustedPriceStore = (*AdjustedPriceStore)(nil)

var adjustedColumns = []string{
	"instrument_id", "trade_date", "close", "dividend", "split_ratio", "adj_close", "split_factor",
}

// Replace deletes the stored series and copies in records within one transaction.
func (s *AdjustedPriceStore) Replace(ctx context.Context, instrumentID string, records []*domain.AdjustedRecord) (err error) {
	if err := storage.ValidateAdjusted(instrumentID, records); err != nil {
		return err
	}
	defer func(start time.Time) { observe("replace_adjusted_prices", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM adjusted_prices WHERE instrument_id = $1`, instrumentID); err != nil {
		return fmt.Errorf("delete adjusted prices: %w", err)
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.InstrumentID, domain.Date(r.Date), r.Close, r.Dividend, r.SplitRatio, r.AdjClose, r.SplitFactor}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"adjusted_prices"}, adjustedColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy adjusted prices: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByInstrument retrieves the series for an instrument, ordered by date ASC.
func (s *AdjustedPriceStore) GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.AdjustedRecord, error) {
	query := `
		SELECT instrument_id, trade_date, close, dividend, split_ratio, adj_close, split_factor
		FROM adjusted_prices
		WHERE instrument_id = $1
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("query adjusted prices: %w", err)
	}
	defer rows.Close()

	var records []*domain.AdjustedRecord
	for rows.Next() {
		var r domain.AdjustedRecord
		if err := rows.Scan(
			&r.InstrumentID, &r.Date, &r.Close, &r.Dividend, &r.SplitRatio, &r.AdjClose, &r.SplitFactor,
		); err != nil {
			return nil, fmt.Errorf("scan adjusted price: %w", err)
		}
		r.Date = domain.Date(r.Date)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjusted prices: %w", err)
	}

	return records, nil
}
