package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

var d0 = time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)

func TestFeatureStore_ReplaceAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFeatureStore(conn)
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Feature: "return", Value: ptr(0.0123)},
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Feature: "volatility_2", Value: ptr(0.2)},
	}
	require.NoError(t, store.Replace(ctx, "AAPL", values))

	got, err := store.GetByInstrument(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Value)
	assert.Equal(t, d0, got[0].Date)
	assert.InDelta(t, 0.0123, *got[1].Value, 1e-12)
	assert.Equal(t, "volatility_2", got[2].Feature)

	// Replace drops values that are no longer computed
	require.NoError(t, store.Replace(ctx, "AAPL", values[:1]))
	got, err = store.GetByInstrument(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFeatureStore_GetByDateRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFeatureStore(conn)
	ctx := context.Background()

	var values []*domain.FeatureValue
	for i := 0; i < 5; i++ {
		values = append(values, &domain.FeatureValue{InstrumentID: "MSFT", Date: d0.AddDate(0, 0, i), Feature: "tcost", Value: ptr(float64(i))})
	}
	require.NoError(t, store.Replace(ctx, "MSFT", values))

	got, err := store.GetByDateRange(ctx, "MSFT", d0.AddDate(0, 0, 1), d0.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 1.0, *got[0].Value)
}

func TestFeatureStore_RejectsDuplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFeatureStore(conn)
	values := []*domain.FeatureValue{
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
	}
	err := store.Replace(context.Background(), "AAPL", values)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}

func TestAdjustedPriceStore_ReplaceAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAdjustedPriceStore(conn)
	ctx := context.Background()

	records := []*domain.AdjustedRecord{
		{DailyRecord: domain.DailyRecord{InstrumentID: "SCN", Date: d0, Close: 101}, AdjClose: 202, SplitFactor: 2},
		{DailyRecord: domain.DailyRecord{InstrumentID: "SCN", Date: d0.AddDate(0, 0, 1), Close: 50, SplitRatio: "2:1"}, AdjClose: 50, SplitFactor: 1},
	}
	require.NoError(t, store.Replace(ctx, "SCN", records))
	require.NoError(t, store.Replace(ctx, "SCN", records))

	got, err := store.GetByInstrument(ctx, "SCN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 202.0, got[0].AdjClose)
	assert.Equal(t, "2:1", got[1].SplitRatio)
}
