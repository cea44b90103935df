package adjust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollForward_MatchesBackwardRatiosOnSplits(t *testing.T) {
	closes := []float64{100, 102, 101, 50, 51, 52, 53.5, 160.2, 158, 161.75}
	recs := series("XCK", closes)
	recs[3].SplitRatio = "2:1"
	recs[7].SplitRatio = "1:3"

	a := New(Options{})
	back, err := a.Adjust(recs)
	require.NoError(t, err)
	fwd, err := a.RollForward(recs)
	require.NoError(t, err)

	for i := 0; i+1 < len(recs); i++ {
		backRatio := back[i].AdjClose / back[i+1].AdjClose
		fwdRatio := fwd[i].AdjClose / fwd[i+1].AdjClose
		assert.InEpsilon(t, backRatio, fwdRatio, 1e-4, "ratio %d/%d", i, i+1)
	}

	for i := range recs {
		assert.Equal(t, back[i].SplitFactor, fwd[i].SplitFactor)
	}
}

func TestRollForward_AnchoredAtOldest(t *testing.T) {
	recs := series("SCN", []float64{100, 102, 101, 50, 51, 52})
	recs[3].SplitRatio = "2:1"

	got, err := New(Options{}).RollForward(recs)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 102, 101, 25, 25.5, 26}, adjCloses(got), 1e-9)
}

func TestRollForward_DividendsDiverge(t *testing.T) {
	recs := series("DIV", []float64{10, 10, 10})
	recs[2].Dividend = 0.5

	a := New(Options{})
	back, err := a.Adjust(recs)
	require.NoError(t, err)
	fwd, err := a.RollForward(recs)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{10, 10, 10.5}, adjCloses(fwd), 1e-9)
	assert.NotEqual(t, back[1].AdjClose/back[2].AdjClose, fwd[1].AdjClose/fwd[2].AdjClose)
}
