package postgres

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

var d0 = time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)

func TestDailyRecordStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDailyRecordStore(pool)
	ctx := context.Background()

	records := []*domain.DailyRecord{
		{InstrumentID: "AAPL", Date: d0, Close: 100, Bid: ptr(99.9), Ask: ptr(100.1), Volume: ptr(1e6)},
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Close: 50, SplitRatio: "2:1"},
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 2), Close: math.NaN(), Dividend: 0.2},
		{InstrumentID: "MSFT", Date: d0, Close: 70},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetByInstrument(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, d0, got[0].Date)
	assert.Equal(t, 99.9, *got[0].Bid)
	assert.Equal(t, 1e6, *got[0].Volume)
	assert.Equal(t, "2:1", got[1].SplitRatio)
	assert.Nil(t, got[1].Bid)
	assert.True(t, math.IsNaN(got[2].Close), "NULL close should read back as NaN")
	assert.Equal(t, 0.2, got[2].Dividend)

	ids, err := store.ListInstruments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, ids)
}

func TestDailyRecordStore_DuplicateRollsBack(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDailyRecordStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.DailyRecord{{InstrumentID: "AAPL", Date: d0, Close: 100}}))

	err := store.InsertBulk(ctx, []*domain.DailyRecord{
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Close: 101},
		{InstrumentID: "AAPL", Date: d0, Close: 100},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByInstrument(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must not leave partial rows")
}

func TestDailyRecordStore_GetByDateRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewDailyRecordStore(pool)
	ctx := context.Background()

	var records []*domain.DailyRecord
	for i := 0; i < 6; i++ {
		records = append(records, &domain.DailyRecord{InstrumentID: "IBM", Date: d0.AddDate(0, 0, i), Close: float64(120 + i)})
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	got, err := store.GetByDateRange(ctx, "IBM", d0.AddDate(0, 0, 2), d0.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 122.0, got[0].Close)
	assert.Equal(t, 124.0, got[2].Close)
}
