package reporting

import "time"

// Report summarises one pipeline batch.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	Start       time.Time
	End         time.Time
	Duration    time.Duration
	Features    []string

	Summary Summary

	// Instruments sorted by instrument id
	Instruments []InstrumentRow

	// Failures grouped by error kind, sorted by kind
	Failures []FailureGroup

	// Non-missing counts per feature over succeeded instruments, in feature order
	Coverage []CoverageRow
}

// Summary holds batch totals.
type Summary struct {
	Requested int
	Succeeded int
	Failed    int
	Rows      int
}

// InstrumentRow is one instrument's outcome.
type InstrumentRow struct {
	InstrumentID string
	Status       string // "ok" or "failed"
	Rows         int
	FirstDate    time.Time
	LastDate     time.Time
	LastAdjClose float64
	Kind         string
	Error        string
}

// FailureGroup lists the instruments that failed with one error kind.
type FailureGroup struct {
	Kind        string
	Instruments []string
}

// CoverageRow counts values present for one feature.
type CoverageRow struct {
	Feature string
	Present int
	Total   int
}

// Ratio returns Present/Total, or 0 for an empty column.
func (c CoverageRow) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Present) / float64(c.Total)
}
