package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equity-feature-lab/internal/domain"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name string
		want Spec
	}{
		{"return_volatility_20", Spec{Name: "return_volatility_20", Field: "return", Statistic: StatVolatility, Window: 20}},
		{"volatility_5", Spec{Name: "volatility_5", Field: "return", Statistic: StatVolatility, Window: 5}},
		{"return_return_10", Spec{Name: "return_return_10", Field: "return", Statistic: StatReturn, Window: 10}},
		{"adj_close_skewness_30", Spec{Name: "adj_close_skewness_30", Field: "adj_close", Statistic: StatSkewness, Window: 30}},
		{"tcost_kurtosis_60", Spec{Name: "tcost_kurtosis_60", Field: "tcost", Statistic: StatKurtosis, Window: 60}},
		{"adjvolume_volatility_20", Spec{Name: "adjvolume_volatility_20", Field: "adjvolume", Statistic: StatVolatility, Window: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpec_Invalid(t *testing.T) {
	for _, name := range []string{"", "volatility", "return_volatility_x", "return_volatility_0", "return_mean_5", "return_volatility_-3"} {
		_, err := ParseSpec(name)
		assert.ErrorIs(t, err, domain.ErrInvalidFeatureSpec, name)
	}
}

func TestParseSpec_UnknownFieldParses(t *testing.T) {
	spec, err := ParseSpec("retrun_volatility_20")
	require.NoError(t, err)
	assert.Equal(t, "retrun", spec.Field)
}

func TestParseSpecs_Dedup(t *testing.T) {
	specs, err := ParseSpecs([]string{"volatility_5", "return_skewness_5", "volatility_5"})
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "volatility_5", specs[0].Name)
	assert.Equal(t, "return_skewness_5", specs[1].Name)

	_, err = ParseSpecs([]string{"volatility_5", "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidFeatureSpec)
}
