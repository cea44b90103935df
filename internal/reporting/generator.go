// Package reporting renders a human-readable summary of a pipeline batch.
package reporting

import (
	"sort"
	"time"

	"equity-feature-lab/internal/pipeline"
	"equity-feature-lab/internal/source"
)

// Generator builds reports from batch results.
type Generator struct {
	now func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate summarises result for req. features lists the computed feature names in order.
func (g *Generator) Generate(result *pipeline.BatchResult, req source.Request, features []string) *Report {
	r := &Report{
		GeneratedAt: g.now(),
		RunID:       result.RunID,
		Start:       req.Start,
		End:         req.End,
		Duration:    result.Duration,
		Features:    append([]string(nil), features...),
		Summary: Summary{
			Requested: len(result.Succeeded) + len(result.Failed),
			Succeeded: len(result.Succeeded),
			Failed:    len(result.Failed),
		},
	}

	coverage := make([]CoverageRow, len(features))
	for i, f := range features {
		coverage[i].Feature = f
	}

	for id, table := range result.Succeeded {
		row := InstrumentRow{InstrumentID: id, Status: "ok", Rows: len(table.Records)}
		if n := len(table.Records); n > 0 {
			row.FirstDate = table.Records[0].Date
			row.LastDate = table.Records[n-1].Date
			row.LastAdjClose = table.Records[n-1].AdjClose
		}
		r.Summary.Rows += row.Rows
		r.Instruments = append(r.Instruments, row)

		for i, f := range features {
			for j := range table.Records {
				coverage[i].Total++
				if table.Value(j, f) != nil {
					coverage[i].Present++
				}
			}
		}
	}

	groups := make(map[string][]string)
	for id, err := range result.Failed {
		kind := pipeline.Kind(err)
		r.Instruments = append(r.Instruments, InstrumentRow{
			InstrumentID: id,
			Status:       "failed",
			Kind:         kind,
			Error:        err.Error(),
		})
		groups[kind] = append(groups[kind], id)
	}

	sort.Slice(r.Instruments, func(i, j int) bool {
		return r.Instruments[i].InstrumentID < r.Instruments[j].InstrumentID
	})
	for kind, ids := range groups {
		sort.Strings(ids)
		r.Failures = append(r.Failures, FailureGroup{Kind: kind, Instruments: ids})
	}
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Kind < r.Failures[j].Kind })
	r.Coverage = coverage

	return r
}
