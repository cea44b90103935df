package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-feature-lab/internal/domain"
)

func TestFeatureStore_ReplaceAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewFeatureStore(pool)
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Feature: "return", Value: ptr(0.01)},
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Feature: "volatility_2", Value: ptr(0.3)},
	}
	require.NoError(t, store.Replace(ctx, "AAPL", values))
	require.NoError(t, store.Replace(ctx, "AAPL", values), "replace must be repeatable")

	got, err := store.GetByInstrument(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Value)
	assert.Equal(t, "volatility_2", got[2].Feature)
	assert.Equal(t, 0.3, *got[2].Value)

	ranged, err := store.GetByDateRange(ctx, "AAPL", d0.AddDate(0, 0, 1), d0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestAdjustedPriceStore_ReplaceAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewAdjustedPriceStore(pool)
	ctx := context.Background()

	records := []*domain.AdjustedRecord{
		{DailyRecord: domain.DailyRecord{InstrumentID: "SCN", Date: d0, Close: 101}, AdjClose: 202, SplitFactor: 2},
		{DailyRecord: domain.DailyRecord{InstrumentID: "SCN", Date: d0.AddDate(0, 0, 1), Close: 50, SplitRatio: "2:1"}, AdjClose: 50, SplitFactor: 1},
	}
	require.NoError(t, store.Replace(ctx, "SCN", records))

	got, err := store.GetByInstrument(ctx, "SCN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 202.0, got[0].AdjClose)
	assert.Equal(t, 2.0, got[0].SplitFactor)

	require.NoError(t, store.Replace(ctx, "SCN", records[1:]))
	got, err = store.GetByInstrument(ctx, "SCN")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
