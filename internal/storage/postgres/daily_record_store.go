package postgres

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

// DailyRecordStore implements storage.DailyRecordStore using PostgreSQL.
type DailyRecordStore struct {
	pool *Pool
}

// NewDailyRecordStore creates a new DailyRecordStore.
func NewDailyRecordStore(pool *Pool) *DailyRecordStore {
	return &DailyRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DailyRecordStore = (*DailyRecordStore)(nil)

const dailyColumns = `instrument_id, trade_date, close, dividend, split_ratio, bid, ask, volume`

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *DailyRecordStore) InsertBulk(ctx context.Context, records []*domain.DailyRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("insert_daily_records", start, err) }(time.Now())

	for _, r := range records {
		if r == nil || r.InstrumentID == "" || r.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO daily_records (` + dailyColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.InstrumentID, domain.Date(r.Date), nullableClose(r.Close), r.Dividend, r.SplitRatio,
			r.Bid, r.Ask, r.Volume,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert daily record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByInstrument retrieves all records for an instrument, ordered by date ASC.
func (s *DailyRecordStore) GetByInstrument(ctx context.Context, instrumentID string) ([]*domain.DailyRecord, error) {
	query := `SELECT ` + dailyColumns + ` FROM daily_records WHERE instrument_id = $1 ORDER BY trade_date ASC`

	rows, err := s.pool.Query(ctx, query, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("query daily records: %w", err)
	}
	defer rows.Close()

	return scanDailyRecords(rows)
}

// GetByDateRange retrieves records for an instrument within [start, end] (inclusive).
func (s *DailyRecordStore) GetByDateRange(ctx context.Context, instrumentID string, start, end time.Time) (out []*domain.DailyRecord, err error) {
	defer func(t time.Time) { observe("select_daily_records", t, err) }(time.Now())

	query := `
		SELECT ` + dailyColumns + `
		FROM daily_records
		WHERE instrument_id = $1 AND trade_date >= $2 AND trade_date <= $3
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, instrumentID, domain.Date(start), domain.Date(end))
	if err != nil {
		return nil, fmt.Errorf("query daily records by range: %w", err)
	}
	defer rows.Close()

	return scanDailyRecords(rows)
}

// ListInstruments returns all instrument ids, sorted.
func (s *DailyRecordStore) ListInstruments(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT instrument_id FROM daily_records ORDER BY instrument_id`)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect instruments: %w", err)
	}
	return ids, nil
}

// nullableClose stores NaN closes as NULL.
func nullableClose(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// scanDailyRecords scans multiple rows.
func scanDailyRecords(rows pgx.Rows) ([]*domain.DailyRecord, error) {
	var records []*domain.DailyRecord

	for rows.Next() {
		var r domain.DailyRecord
		var closePrice *float64
		if err := rows.Scan(
			&r.InstrumentID, &r.Date, &closePrice, &r.Dividend, &r.SplitRatio,
			&r.Bid, &r.Ask, &r.Volume,
		); err != nil {
			return nil, fmt.Errorf("scan daily record: %w", err)
		}
		r.Close = math.NaN()
		if closePrice != nil {
			r.Close = *closePrice
		}
		r.Date = domain.Date(r.Date)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily records: %w", err)
	}

	return records, nil
}
