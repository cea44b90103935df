package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-feature-lab/internal/calendar"
	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
	"equity-feature-lab/internal/storage/memory"
)

// flakyStore fails range reads for one instrument.
type flakyStore struct {
	storage.DailyRecordStore
	failID string
}

func (s *flakyStore) GetByDateRange(ctx context.Context, id string, start, end time.Time) ([]*domain.DailyRecord, error) {
	if id == s.failID {
		return nil, errors.New("connection reset")
	}
	return s.DailyRecordStore.GetByDateRange(ctx, id, start, end)
}

func TestStoreSource_Fetch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDailyRecordStore()
	// 2021-03-01 is a Monday
	require.NoError(t, store.InsertBulk(ctx, []*domain.DailyRecord{
		rec(1, 10), rec(2, 11), rec(4, 12), rec(5, 13),
	}))

	src := NewStoreSource(store, calendar.Weekdays, nil)
	got, err := src.Fetch(ctx, Request{InstrumentIDs: []string{"IBM", "MSFT"}, Start: day(1), End: day(7)})
	require.NoError(t, err)

	require.Contains(t, got, "IBM")
	assert.Len(t, got["IBM"].Records, 4)
	assert.Equal(t, []time.Time{day(3)}, got["IBM"].Missing)

	require.Contains(t, got, "MSFT")
	assert.True(t, got["MSFT"].Empty())
}

func TestStoreSource_InvalidRange(t *testing.T) {
	src := NewStoreSource(memory.NewDailyRecordStore(), nil, nil)
	_, err := src.Fetch(context.Background(), Request{InstrumentIDs: []string{"IBM"}, Start: day(5), End: day(1)})
	assert.ErrorIs(t, err, domain.ErrDateRange)
}

func TestStoreSource_LoadErrorStaysWithInstrument(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewDailyRecordStore()
	require.NoError(t, inner.InsertBulk(ctx, []*domain.DailyRecord{rec(1, 10), rec(2, 11)}))

	src := NewStoreSource(&flakyStore{DailyRecordStore: inner, failID: "MSFT"}, calendar.Weekdays, nil)
	got, err := src.Fetch(ctx, Request{InstrumentIDs: []string{"IBM", "MSFT", "IBM"}, Start: day(1), End: day(2)})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.NoError(t, got["IBM"].Err)
	assert.Len(t, got["IBM"].Records, 2)
	assert.ErrorContains(t, got["MSFT"].Err, "connection reset")
}
