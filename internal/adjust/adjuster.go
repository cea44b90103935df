// Package adjust back-adjusts raw closing prices for splits and dividends.
package adjust

import (
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"equity-feature-lab/internal/domain"
	"equity-feature-lab/internal/observability"
)

// DefaultPrecision is the number of decimal places adjusted prices are rounded to.
const DefaultPrecision int32 = 4

// Options configures an Adjuster.
type Options struct {
	Precision    int32                  // decimal places, DefaultPrecision when zero
	StrictSplits bool                   // reject malformed split ratios instead of using the neutral ratio
	Logger       *slog.Logger           // defaults to slog.Default()
	Metrics      *observability.Metrics // optional
}

// Adjuster computes adjusted closes. It holds no per-series state and is safe for concurrent use.
type Adjuster struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Adjuster.
func New(opts Options) *Adjuster {
	if opts.Precision <= 0 {
		opts.Precision = DefaultPrecision
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adjuster{opts: opts, logger: logger}
}

// Precision returns the configured rounding precision.
func (a *Adjuster) Precision() int32 {
	return a.opts.Precision
}

// Adjust back-adjusts one instrument's series, newest to oldest.
//
// The most recent record is the anchor and keeps its raw close. Each earlier
// record d is derived from the next later record n using the split ratio and
// dividend recorded at n:
//
//	adj[d] = adj[n] + adj[n] * ((close[d]*split[n] - close[n] - div[n]) / close[n])
//
// Every step is rounded before it feeds the next one.
func (a *Adjuster) Adjust(records []*domain.DailyRecord) ([]*domain.AdjustedRecord, error) {
	p, err := a.prepare(records)
	if err != nil {
		return nil, err
	}

	n := len(records)
	adj := make([]float64, n)
	factor := make([]float64, n)

	last := n - 1
	adj[last] = p.close[last]
	factor[last] = 1

	for d := last - 1; d >= 0; d-- {
		next := d + 1
		if p.close[next] == 0 {
			return nil, &domain.DataIntegrityError{
				InstrumentID: p.id, Date: records[next].Date, Reason: "zero close in adjustment",
			}
		}

		v := adj[next] + adj[next]*((p.close[d]*p.split[next]-p.close[next]-p.dividend[next])/p.close[next])
		v = a.round(v)
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return nil, &domain.DataIntegrityError{
				InstrumentID: p.id, Date: records[d].Date, Reason: "adjusted close not positive",
			}
		}
		adj[d] = v
		factor[d] = factor[next] * p.split[next]
	}

	return p.build(adj, factor), nil
}

func (a *Adjuster) round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(a.opts.Precision).InexactFloat64()
}

func (p *prepared) build(adj, factor []float64) []*domain.AdjustedRecord {
	out := make([]*domain.AdjustedRecord, len(p.records))
	for i, r := range p.records {
		rec := *r
		rec.Dividend = p.dividend[i]
		out[i] = &domain.AdjustedRecord{
			DailyRecord: rec,
			AdjClose:    adj[i],
			SplitFactor: factor[i],
		}
	}
	return out
}
