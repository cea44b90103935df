// Package features computes rolling statistical features over adjusted price series.
package features

import (
	"math"

	"equity-feature-lab/internal/domain"
)

// Engine computes a fixed set of feature specs. It is safe for concurrent use.
type Engine struct {
	specs []Spec
	names []string
}

// NewEngine creates an engine for specs.
func NewEngine(specs []Spec) *Engine {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return &Engine{specs: specs, names: names}
}

// Specs returns the engine's feature specs.
func (e *Engine) Specs() []Spec {
	return e.specs
}

// Compute derives the preprocessing columns and all specs for one instrument.
// Every spec field is resolved before any statistic is computed, so an unknown
// field fails the instrument without partial output.
func (e *Engine) Compute(series []*domain.AdjustedRecord) (*domain.FeatureTable, error) {
	if len(series) == 0 {
		return nil, &domain.DataIntegrityError{Reason: "empty adjusted series"}
	}

	cols := Columns(series)
	inputs := make([][]*float64, len(e.specs))
	for i, spec := range e.specs {
		col, ok := cols[spec.Field]
		if !ok {
			return nil, &domain.FeatureNotFoundError{Feature: spec.Name, Field: spec.Field}
		}
		inputs[i] = col
	}

	table := &domain.FeatureTable{
		InstrumentID: series[0].InstrumentID,
		Names:        append([]string(nil), e.names...),
		Records:      make([]*domain.FeatureRecord, len(series)),
	}
	for i, r := range series {
		rec := &domain.FeatureRecord{
			AdjustedRecord: *r,
			Return:         cols[FieldReturn][i],
			TCost:          cols[FieldTCost][i],
			Features:       make(map[string]*float64, len(e.specs)),
		}
		if adjVol, ok := cols[FieldAdjVolume]; ok {
			rec.AdjVolume = adjVol[i]
		}
		table.Records[i] = rec
	}

	for i, spec := range e.specs {
		values := Rolling(inputs[i], spec.Window, spec.Statistic)
		for j, v := range values {
			table.Records[j].Features[spec.Name] = v
		}
	}

	return table, nil
}

// Columns returns every field available for series, keyed by field name.
// Volume fields are present only when at least one record reports volume.
func Columns(series []*domain.AdjustedRecord) map[string][]*float64 {
	n := len(series)
	cols := map[string][]*float64{
		FieldReturn:   LogReturns(series),
		FieldTCost:    make([]*float64, n),
		FieldAdjClose: make([]*float64, n),
		FieldClose:    make([]*float64, n),
		FieldDividend: make([]*float64, n),
	}

	hasVolume := false
	for i, r := range series {
		cols[FieldTCost][i] = TransactionCost(r.Bid, r.Ask)
		cols[FieldAdjClose][i] = domain.Float(r.AdjClose)
		cols[FieldClose][i] = domain.Float(r.Close)
		cols[FieldDividend][i] = domain.Float(r.Dividend)
		if r.Volume != nil {
			hasVolume = true
		}
	}

	if hasVolume {
		vol := make([]*float64, n)
		adjVol := make([]*float64, n)
		for i, r := range series {
			if r.Volume == nil {
				continue
			}
			vol[i] = domain.Float(*r.Volume)
			factor := r.SplitFactor
			if factor <= 0 {
				factor = 1
			}
			adjVol[i] = domain.Float(*r.Volume / factor)
		}
		cols[FieldVolume] = vol
		cols[FieldAdjVolume] = adjVol
	}

	return cols
}

// LogReturns returns ln(adj[d]) - ln(adj[d-1]); the first value is nil.
func LogReturns(series []*domain.AdjustedRecord) []*float64 {
	out := make([]*float64, len(series))
	for i := 1; i < len(series); i++ {
		prev, cur := series[i-1].AdjClose, series[i].AdjClose
		if prev <= 0 || cur <= 0 {
			continue
		}
		out[i] = domain.Float(math.Log(cur) - math.Log(prev))
	}
	return out
}

// TransactionCost returns the relative half spread (ask-bid)/(ask+bid).
// It is nil when either quote is absent or both are zero.
func TransactionCost(bid, ask *float64) *float64 {
	if bid == nil || ask == nil {
		return nil
	}
	total := *ask + *bid
	if total == 0 || math.IsNaN(total) {
		return nil
	}
	return domain.Float((*ask - *bid) / total)
}
