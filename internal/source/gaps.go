package source

import (
	"fmt"
	"math"
	"time"

	"equity-feature-lab/internal/domain"
)

// GapPolicy decides what happens to trading days a source had no row for.
type GapPolicy string

const (
	// GapFail rejects the instrument with a DatasetIncompleteError.
	GapFail GapPolicy = "fail"
	// GapSkip drops the missing days; the series continues at the next available day.
	GapSkip GapPolicy = "skip"
	// GapCarryForward repeats the previous close with no dividend and no split.
	// It also fills rows whose close is missing.
	GapCarryForward GapPolicy = "carry_forward"
)

// ParseGapPolicy parses a policy name; empty means GapFail.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch GapPolicy(s) {
	case "", GapFail:
		return GapFail, nil
	case GapSkip, GapCarryForward:
		return GapPolicy(s), nil
	}
	return "", fmt.Errorf("unknown gap policy %q", s)
}

// Resolve turns a fetched series into the record sequence handed to the adjuster.
// A series the source failed to load returns that failure; a series without
// rows is always a DatasetIncompleteError.
func (p GapPolicy) Resolve(s *Series) ([]*domain.DailyRecord, error) {
	if s != nil && s.Err != nil {
		return nil, s.Err
	}
	if s.Empty() {
		id := ""
		if s != nil {
			id = s.InstrumentID
		}
		return nil, &domain.DatasetIncompleteError{InstrumentID: id}
	}

	switch p {
	case GapSkip:
		return s.Records, nil
	case GapCarryForward:
		return carryForward(s), nil
	default:
		if len(s.Missing) > 0 {
			return nil, &domain.DatasetIncompleteError{InstrumentID: s.InstrumentID, Missing: s.Missing}
		}
		return s.Records, nil
	}
}

// carryForward merges missing days into the records. Missing days before the
// first row with a close have nothing to carry and are dropped.
func carryForward(s *Series) []*domain.DailyRecord {
	missing := make(map[time.Time]bool, len(s.Missing))
	for _, d := range s.Missing {
		missing[domain.Date(d)] = true
	}

	all := make([]*domain.DailyRecord, 0, len(s.Records)+len(s.Missing))
	for _, r := range s.Records {
		rec := *r
		all = append(all, &rec)
		delete(missing, domain.Date(r.Date))
	}
	for d := range missing {
		all = append(all, &domain.DailyRecord{InstrumentID: s.InstrumentID, Date: d, Close: math.NaN()})
	}
	sortRecords(all)

	out := all[:0]
	last := math.NaN()
	for _, r := range all {
		if math.IsNaN(r.Close) {
			if math.IsNaN(last) {
				if r.Dividend == 0 && r.SplitRatio == "" {
					continue
				}
				// keep rows carrying corporate actions so the adjuster rejects them
				out = append(out, r)
				continue
			}
			r.Close = last
		}
		last = r.Close
		out = append(out, r)
	}
	return out
}
