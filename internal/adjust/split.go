package adjust

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"equity-feature-lab/internal/domain"
)

// ErrNonPositiveSplit is returned for split ratios that parse but are zero, negative or infinite.
var ErrNonPositiveSplit = errors.New("split ratio must be positive")

// NeutralSplit is the ratio applied when no corporate action is recorded.
const NeutralSplit = 1.0

// ParseSplitRatio converts a split ratio string into prior/post shares.
//
// Accepted forms: "2:1", "2/1" and a bare number such as "2" or "0.5".
// Empty input is neutral. Unparseable input returns domain.ErrMalformedSplit.
func ParseSplitRatio(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NeutralSplit, nil
	}

	sep := strings.IndexAny(s, ":/")
	if sep < 0 {
		v, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", domain.ErrMalformedSplit, raw)
		}
		if !v.IsPositive() {
			return 0, fmt.Errorf("%w: %q", ErrNonPositiveSplit, raw)
		}
		return v.InexactFloat64(), nil
	}

	prior, err := decimal.NewFromString(strings.TrimSpace(s[:sep]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedSplit, raw)
	}
	post, err := decimal.NewFromString(strings.TrimSpace(s[sep+1:]))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrMalformedSplit, raw)
	}
	if !prior.IsPositive() || !post.IsPositive() {
		return 0, fmt.Errorf("%w: %q", ErrNonPositiveSplit, raw)
	}
	return prior.Div(post).InexactFloat64(), nil
}
