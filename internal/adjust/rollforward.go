package adjust

import (
	"equity-feature-lab/internal/domain"
)

// RollForward adjusts a series by compounding corporate-action factors forward
// from the oldest record:
//
//	cum[d] = prod(1/split[k]) for k <= d
//	adj[d] = close[d]*cum[d] + sum(div[k]*cum[k]) for k <= d
//
// The result is anchored at the oldest record, not the newest. On split-only
// series its price ratios between dates match Adjust; with dividends the two
// methods diverge because dividends enter additively here. Adjust is the
// authoritative method; RollForward exists for cross-checking.
func (a *Adjuster) RollForward(records []*domain.DailyRecord) ([]*domain.AdjustedRecord, error) {
	p, err := a.prepare(records)
	if err != nil {
		return nil, err
	}

	n := len(records)
	adj := make([]float64, n)
	factor := make([]float64, n)

	cum := 1.0
	divSum := 0.0
	for i := 0; i < n; i++ {
		cum /= p.split[i]
		divSum += p.dividend[i] * cum
		adj[i] = a.round(p.close[i]*cum + divSum)
	}

	factor[n-1] = 1
	for i := n - 2; i >= 0; i-- {
		factor[i] = factor[i+1] * p.split[i+1]
	}

	return p.build(adj, factor), nil
}
