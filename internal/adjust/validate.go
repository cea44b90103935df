package adjust

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"equity-feature-lab/internal/domain"
)

// prepared is a validated series with parsed corporate actions.
type prepared struct {
	id       string
	records  []*domain.DailyRecord
	close    []float64
	dividend []float64
	split    []float64
}

// prepare validates records and resolves dividend and split defaults.
func (a *Adjuster) prepare(records []*domain.DailyRecord) (*prepared, error) {
	if len(records) == 0 {
		return nil, &domain.DataIntegrityError{Reason: "empty series"}
	}

	p := &prepared{
		id:       records[0].InstrumentID,
		records:  records,
		close:    make([]float64, len(records)),
		dividend: make([]float64, len(records)),
		split:    make([]float64, len(records)),
	}

	for i, r := range records {
		if r == nil {
			return nil, &domain.DataIntegrityError{InstrumentID: p.id, Reason: "nil record"}
		}
		fail := func(reason string, err error) error {
			return &domain.DataIntegrityError{InstrumentID: p.id, Date: r.Date, Reason: reason, Err: err}
		}

		if r.InstrumentID != p.id {
			return nil, fail("mixed instruments in series", fmt.Errorf("found %q", r.InstrumentID))
		}
		if i > 0 {
			prev := records[i-1].Date
			if r.Date.Equal(prev) {
				return nil, fail("duplicate date", nil)
			}
			if r.Date.Before(prev) {
				return nil, fail("dates not in ascending order", nil)
			}
		}

		switch {
		case math.IsNaN(r.Close) || math.IsInf(r.Close, 0):
			return nil, fail("close missing", nil)
		case r.Close <= 0:
			return nil, fail("close not positive", nil)
		}
		p.close[i] = r.Close

		div := r.Dividend
		if math.IsNaN(div) {
			div = 0
		}
		if div < 0 || math.IsInf(div, 0) {
			return nil, fail("invalid dividend", nil)
		}
		p.dividend[i] = div

		ratio, err := ParseSplitRatio(r.SplitRatio)
		switch {
		case err == nil:
			p.split[i] = ratio
		case errors.Is(err, domain.ErrMalformedSplit) && !a.opts.StrictSplits:
			a.logger.Warn("malformed split ratio, using neutral",
				slog.String("instrument", p.id),
				slog.String("date", r.Date.Format(domain.DateLayout)),
				slog.String("raw", r.SplitRatio))
			a.opts.Metrics.RecordMalformedSplit()
			p.split[i] = NeutralSplit
		default:
			return nil, fail("invalid split ratio", err)
		}
	}

	return p, nil
}
