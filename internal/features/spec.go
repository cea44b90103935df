package features

import (
	"fmt"
	"strconv"
	"strings"

	"equity-feature-lab/internal/domain"
)

// Statistic is a rolling-window statistic.
type Statistic string

// Supported statistics.
const (
	StatReturn     Statistic = "return"     // trailing sum
	StatVolatility Statistic = "volatility" // population standard deviation
	StatSkewness   Statistic = "skewness"   // moment skewness g1
	StatKurtosis   Statistic = "kurtosis"   // moment excess kurtosis g2
)

// Valid reports whether s is a supported statistic.
func (s Statistic) Valid() bool {
	switch s {
	case StatReturn, StatVolatility, StatSkewness, StatKurtosis:
		return true
	}
	return false
}

// Columns a spec field can refer to.
const (
	FieldReturn    = "return"
	FieldTCost     = "tcost"
	FieldAdjClose  = "adj_close"
	FieldClose     = "close"
	FieldDividend  = "dividend"
	FieldVolume    = "volume"
	FieldAdjVolume = "adjvolume"
)

// Spec is a parsed feature name: Statistic over the trailing Window values of Field.
type Spec struct {
	Name      string
	Field     string
	Statistic Statistic
	Window    int
}

// ParseSpec parses "{field}_{statistic}_{window}" or "{statistic}_{window}".
// The field may itself contain underscores ("adj_close_volatility_20").
// Whether the field exists is checked against an instrument's columns at compute time.
func ParseSpec(name string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(name), "_")
	if len(parts) < 2 {
		return Spec{}, fmt.Errorf("%w: %q", domain.ErrInvalidFeatureSpec, name)
	}

	window, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || window < 1 {
		return Spec{}, fmt.Errorf("%w: %q: window must be a positive integer", domain.ErrInvalidFeatureSpec, name)
	}

	stat := Statistic(parts[len(parts)-2])
	if !stat.Valid() {
		return Spec{}, fmt.Errorf("%w: %q: unknown statistic %q", domain.ErrInvalidFeatureSpec, name, stat)
	}

	field := strings.Join(parts[:len(parts)-2], "_")
	if field == "" {
		field = FieldReturn
	}

	return Spec{
		Name:      strings.TrimSpace(name),
		Field:     field,
		Statistic: stat,
		Window:    window,
	}, nil
}

// ParseSpecs parses names in order and drops repeated names.
func ParseSpecs(names []string) ([]Spec, error) {
	seen := make(map[string]struct{}, len(names))
	specs := make([]Spec, 0, len(names))
	for _, n := range names {
		spec, err := ParseSpec(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[spec.Name]; dup {
			continue
		}
		seen[spec.Name] = struct{}{}
		specs = append(specs, spec)
	}
	return specs, nil
}
