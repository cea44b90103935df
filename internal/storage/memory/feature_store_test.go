package memory

import (
	"context"
	"errors"
	"testing"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/storage"
)

func TestFeatureStore_ReplaceAndGet(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	first := []*domain.FeatureValue{
		{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Feature: "return", Value: domain.Float(0.01)},
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
		{InstrumentID: "AAPL", Date: d0, Feature: "volatility_5"},
	}
	if err := store.Replace(ctx, "AAPL", first); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	result, err := store.GetByInstrument(ctx, "AAPL")
	if err != nil {
		t.Fatalf("GetByInstrument failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 values, got %d", len(result))
	}
	if result[0].Feature != "return" || result[1].Feature != "volatility_5" || !result[2].Date.Equal(d0.AddDate(0, 0, 1)) {
		t.Errorf("Expected values ordered by date, feature; got %+v %+v %+v", result[0], result[1], result[2])
	}

	// recomputation replaces the whole set
	second := []*domain.FeatureValue{
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
	}
	if err := store.Replace(ctx, "AAPL", second); err != nil {
		t.Fatalf("second Replace failed: %v", err)
	}
	result, _ = store.GetByInstrument(ctx, "AAPL")
	if len(result) != 1 {
		t.Errorf("Expected 1 value after replace, got %d", len(result))
	}
}

func TestFeatureStore_ReplaceRejectsDuplicates(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	values := []*domain.FeatureValue{
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
		{InstrumentID: "AAPL", Date: d0, Feature: "return"},
	}
	if err := store.Replace(ctx, "AAPL", values); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestFeatureStore_GetByDateRange(t *testing.T) {
	store := NewFeatureStore()
	ctx := context.Background()

	var values []*domain.FeatureValue
	for i := 0; i < 4; i++ {
		values = append(values, &domain.FeatureValue{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, i), Feature: "return"})
	}
	if err := store.Replace(ctx, "AAPL", values); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	result, _ := store.GetByDateRange(ctx, "AAPL", d0.AddDate(0, 0, 2), d0.AddDate(0, 0, 10))
	if len(result) != 2 {
		t.Errorf("Expected 2 values in range, got %d", len(result))
	}
}

func TestAdjustedPriceStore_Replace(t *testing.T) {
	store := NewAdjustedPriceStore()
	ctx := context.Background()

	records := []*domain.AdjustedRecord{
		{DailyRecord: domain.DailyRecord{InstrumentID: "AAPL", Date: d0, Close: 100}, AdjClose: 200, SplitFactor: 2},
		{DailyRecord: domain.DailyRecord{InstrumentID: "AAPL", Date: d0.AddDate(0, 0, 1), Close: 50, SplitRatio: "2:1"}, AdjClose: 50, SplitFactor: 1},
	}
	if err := store.Replace(ctx, "AAPL", records); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	result, _ := store.GetByInstrument(ctx, "AAPL")
	if len(result) != 2 || result[0].AdjClose != 200 {
		t.Fatalf("Unexpected stored series: %+v", result)
	}

	result[0].AdjClose = 1
	again, _ := store.GetByInstrument(ctx, "AAPL")
	if again[0].AdjClose != 200 {
		t.Error("GetByInstrument should return copies")
	}

	if err := store.Replace(ctx, "MSFT", records); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for foreign records, got %v", err)
	}
}
