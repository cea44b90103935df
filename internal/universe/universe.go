// Package universe tracks which instruments are listed and how actively they trade.
package universe

import (
	"sort"
	"time"

	"equity-feature-lab/internal/domain"
)

// ListingChanges compares two days' symbol lists. Delisted symbols appear in
// prev only, listed symbols in next only. Both results are sorted.
func ListingChanges(prev, next []string) (delisted, listed []string) {
	before := set(prev)
	after := set(next)
	for s := range before {
		if !after[s] {
			delisted = append(delisted, s)
		}
	}
	for s := range after {
		if !before[s] {
			listed = append(listed, s)
		}
	}
	sort.Strings(delisted)
	sort.Strings(listed)
	return delisted, listed
}

func set(symbols []string) map[string]bool {
	m := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		m[s] = true
	}
	return m
}

// RankByVolume returns instrument ids ordered by volume, highest first, ties
// broken by id. Records without volume are not ranked. top <= 0 returns all.
func RankByVolume(records []*domain.DailyRecord, top int) []string {
	ranked := make([]*domain.DailyRecord, 0, len(records))
	for _, r := range records {
		if r != nil && r.Volume != nil {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := *ranked[i].Volume, *ranked[j].Volume
		if vi != vj {
			return vi > vj
		}
		return ranked[i].InstrumentID < ranked[j].InstrumentID
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.InstrumentID
	}
	return ids
}

// Listing is the first and last date an instrument has a record.
type Listing struct {
	InstrumentID string
	First        time.Time
	Last         time.Time
}

// Span returns the listing window of one series. ok is false for an empty series.
func Span(records []*domain.DailyRecord) (Listing, bool) {
	var l Listing
	for _, r := range records {
		if r == nil {
			continue
		}
		if l.InstrumentID == "" {
			l = Listing{InstrumentID: r.InstrumentID, First: r.Date, Last: r.Date}
			continue
		}
		if r.Date.Before(l.First) {
			l.First = r.Date
		}
		if r.Date.After(l.Last) {
			l.Last = r.Date
		}
	}
	return l, l.InstrumentID != ""
}
