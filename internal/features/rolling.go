package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Rolling applies statistic over every trailing window of length w.
// Index i is nil unless values[i-w+1..i] are all present.
func Rolling(values []*float64, w int, statistic Statistic) []*float64 {
	out := make([]*float64, len(values))
	if w < 1 {
		return out
	}

	window := make([]float64, w)
	for i := w - 1; i < len(values); i++ {
		complete := true
		for j := 0; j < w; j++ {
			v := values[i-w+1+j]
			if v == nil || math.IsNaN(*v) {
				complete = false
				break
			}
			window[j] = *v
		}
		if !complete {
			continue
		}
		if v, ok := compute(window, statistic); ok {
			out[i] = &v
		}
	}
	return out
}

func compute(xs []float64, statistic Statistic) (float64, bool) {
	if statistic == StatReturn {
		return floats.Sum(xs), true
	}

	c := centered(xs)
	m2 := stat.Moment(2, c, nil)
	switch statistic {
	case StatVolatility:
		return math.Sqrt(m2), true
	case StatSkewness:
		if m2 == 0 {
			return 0, false
		}
		return stat.Moment(3, c, nil) / math.Pow(m2, 1.5), true
	case StatKurtosis:
		if m2 == 0 {
			return 0, false
		}
		return stat.Moment(4, c, nil)/(m2*m2) - 3, true
	}
	return 0, false
}

// centered shifts xs by its first element so a constant window has
// exactly zero central moments.
func centered(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	floats.AddConst(-xs[0], out)
	return out
}
