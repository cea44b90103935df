package source

import (
	"context"
	"fmt"
	"time"

	"equity-feature-lab/internal/calendar"
	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/observability"
	"equity-feature-lab/internal/storage"
)

// StoreSource reads raw records previously ingested into a DailyRecordStore.
type StoreSource struct {
	store    storage.DailyRecordStore
	calendar calendar.Oracle
	metrics  *observability.Metrics
}

// NewStoreSource creates a source over store. A nil cal means calendar.Weekdays.
func NewStoreSource(store storage.DailyRecordStore, cal calendar.Oracle, metrics *observability.Metrics) *StoreSource {
	if cal == nil {
		cal = calendar.Weekdays
	}
	return &StoreSource{store: store, calendar: cal, metrics: metrics}
}

// Fetch implements Source.
func (s *StoreSource) Fetch(ctx context.Context, req Request) (map[string]*Series, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	days := calendar.TradingDays(s.calendar, req.Start, req.End)

	out := make(map[string]*Series, len(req.InstrumentIDs))
	var fetched, missing int
	for _, id := range req.Instruments() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records, err := s.store.GetByDateRange(ctx, id, domain.Date(req.Start), domain.Date(req.End))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			out[id] = &Series{InstrumentID: id, Err: fmt.Errorf("load %s: %w", id, err)}
			continue
		}
		for _, r := range records {
			req.Project(r)
		}
		series := &Series{InstrumentID: id, Records: records}
		if len(records) > 0 {
			series.Missing = MissingDays(days, records)
		}
		out[id] = series
		fetched += len(records)
		missing += len(series.Missing)
	}

	s.metrics.RecordFetch("store", fetched, missing, time.Since(start).Seconds())
	return out, nil
}

// MissingDays returns the entries of days that have no record.
func MissingDays(days []time.Time, records []*domain.DailyRecord) []time.Time {
	have := make(map[time.Time]bool, len(records))
	for _, r := range records {
		have[domain.Date(r.Date)] = true
	}
	var missing []time.Time
	for _, d := range days {
		if !have[d] {
			missing = append(missing, d)
		}
	}
	return missing
}
