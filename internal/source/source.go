// Package source defines how raw daily records are acquired and how gaps in
// them are resolved before adjustment.
package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"equity-feature-lab/internal/domain"
)

// Raw columns a request can ask for.
const (
	FieldClose      = "close"
	FieldDividend   = "dividend"
	FieldSplitRatio = "split_ratio"
	FieldBid        = "bid"
	FieldAsk        = "ask"
	FieldVolume     = "volume"
)

var knownFields = map[string]bool{
	FieldClose: true, FieldDividend: true, FieldSplitRatio: true,
	FieldBid: true, FieldAsk: true, FieldVolume: true,
}

// Request selects instruments, optional columns and an inclusive date range.
// Close, dividend and split ratio are always loaded; an empty Fields loads every
// optional column the source has.
type Request struct {
	InstrumentIDs []string
	Fields        []string
	Start         time.Time
	End           time.Time
}

// Validate checks the request before any I/O.
func (r Request) Validate() error {
	if len(r.InstrumentIDs) == 0 {
		return fmt.Errorf("request has no instruments")
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return &domain.DateRangeError{Start: r.Start, End: r.End, Reason: "start and end are required"}
	}
	if r.End.Before(r.Start) {
		return &domain.DateRangeError{Start: r.Start, End: r.End, Reason: "end date before start date"}
	}
	for _, f := range r.Fields {
		if !knownFields[f] {
			return &domain.FeatureNotFoundError{Feature: f, Field: f}
		}
	}
	return nil
}

// Instruments returns InstrumentIDs without repeats, in first-seen order.
// Sources iterate this instead of InstrumentIDs so a repeated id is fetched once.
func (r Request) Instruments() []string {
	seen := make(map[string]bool, len(r.InstrumentIDs))
	out := make([]string, 0, len(r.InstrumentIDs))
	for _, id := range r.InstrumentIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Wants reports whether the optional column field should be loaded.
func (r Request) Wants(field string) bool {
	if len(r.Fields) == 0 {
		return true
	}
	for _, f := range r.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Project clears the optional columns the request did not ask for.
func (r Request) Project(rec *domain.DailyRecord) {
	if !r.Wants(FieldBid) {
		rec.Bid = nil
	}
	if !r.Wants(FieldAsk) {
		rec.Ask = nil
	}
	if !r.Wants(FieldVolume) {
		rec.Volume = nil
	}
}

// Series is the acquisition result for one instrument.
// Missing lists trading days inside the range for which the source had no row.
// Err is set when the source could not load this instrument; the other
// instruments of the same request are unaffected.
type Series struct {
	InstrumentID string
	Records      []*domain.DailyRecord
	Missing      []time.Time
	Err          error
}

// Empty reports whether the source returned no rows at all.
func (s *Series) Empty() bool {
	return s == nil || len(s.Records) == 0
}

// Source fetches raw daily records. Every requested instrument appears in the
// result, with an empty Series when the source has nothing for it. A failure
// specific to one instrument is reported in its Series.Err; the returned error
// is reserved for failures of the whole request.
type Source interface {
	Fetch(ctx context.Context, req Request) (map[string]*Series, error)
}

// sortRecords orders records by date.
func sortRecords(records []*domain.DailyRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
