package domain

import "time"

// DateLayout is the canonical textual form of a trading date.
const DateLayout = "2006-01-02"

// DailyRecord is one instrument on one trading date, as delivered by a source.
// Corresponds to daily_records table in PostgreSQL.
type DailyRecord struct {
	InstrumentID string    // ticker or vendor identifier
	Date         time.Time // trading date, UTC midnight
	Close        float64   // raw close, NaN when the source had no value
	Dividend     float64   // cash dividend effective at Date, 0 if none
	SplitRatio   string    // "prior:post" effective at Date, empty if none
	Bid          *float64  // closing bid, NULL if not quoted
	Ask          *float64  // closing ask, NULL if not quoted
	Volume       *float64  // shares traded, NULL if not reported
}

// AdjustedRecord is a DailyRecord with its back-adjusted close.
// Corresponds to adjusted_prices table.
type AdjustedRecord struct {
	DailyRecord
	AdjClose    float64 // back-adjusted close, equals Close at the anchor date
	SplitFactor float64 // product of split ratios effective after Date, 1 at the anchor
}

// FeatureRecord is an AdjustedRecord with preprocessing columns and named features.
type FeatureRecord struct {
	AdjustedRecord
	Return    *float64            // ln(adj[d]) - ln(adj[d-1]), NULL on the first date
	TCost     *float64            // (ask-bid)/(ask+bid), NULL without quotes
	AdjVolume *float64            // Volume / SplitFactor, NULL without volume
	Features  map[string]*float64 // feature name -> value, NULL when the window is short
}

// FeatureTable is the computed feature set for one instrument.
type FeatureTable struct {
	InstrumentID string
	Names        []string // requested feature names in request order
	Records      []*FeatureRecord
}

// Value returns the feature value at index i, or nil.
func (t *FeatureTable) Value(i int, name string) *float64 {
	if i < 0 || i >= len(t.Records) {
		return nil
	}
	return t.Records[i].Features[name]
}

// Column returns the values of one feature across all dates.
func (t *FeatureTable) Column(name string) []*float64 {
	out := make([]*float64, len(t.Records))
	for i, r := range t.Records {
		out[i] = r.Features[name]
	}
	return out
}

// FeatureValue is one feature value in long format.
// Corresponds to feature_values table in PostgreSQL and ClickHouse.
type FeatureValue struct {
	InstrumentID string
	Date         time.Time
	Feature      string   // feature or preprocessing column name
	Value        *float64 // NULL when missing
}

// Date truncates t to a UTC calendar date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
