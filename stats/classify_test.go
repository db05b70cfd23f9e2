package stats

import (
	"math"
	"testing"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAdjustedIgnoresLabels(t *testing.T) {
	t.Parallel()

	// The second trade was labelled a winner but was stopped out.
	gains := []float64{0.15, -0.13, 0.10}
	labels := []dataset.Label{dataset.LabelWin, dataset.LabelWin, dataset.LabelLoss}

	wins := Classify(gains, labels, Classification{Adjusted: true})
	assert.Equal(t, []bool{true, false, true}, wins)
}

func TestClassifyRawUsesLabels(t *testing.T) {
	t.Parallel()

	gains := []float64{0.01, -0.02, 0.03}
	labels := []dataset.Label{dataset.LabelLoss, dataset.LabelWin, dataset.LabelUnknown}

	wins := Classify(gains, labels, Classification{})
	assert.Equal(t, []bool{false, true, true}, wins)

	derived := Classify(gains, labels, Classification{Derived: true})
	assert.Equal(t, []bool{true, false, true}, derived)
}

func TestClassifyBreakeven(t *testing.T) {
	t.Parallel()

	gains := []float64{0, 0.01, -0.01}
	assert.Equal(t, []bool{false, true, false}, Classify(gains, nil, Classification{}))
	assert.Equal(t, []bool{true, true, false}, Classify(gains, nil, Classification{BreakevenIsWin: true}))

	// Once adjusted, zero is a loser regardless of the flag.
	assert.Equal(t, []bool{false, true, false},
		Classify(gains, nil, Classification{Adjusted: true, BreakevenIsWin: true}))
}

func TestPartitionCountsAddUp(t *testing.T) {
	t.Parallel()

	values := []float64{5, -1, 0, 3, -7}
	wins := Classify(values, nil, Classification{})
	winners, losers := Partition(values, wins)

	assert.Equal(t, []float64{5, 3}, winners)
	assert.Equal(t, []float64{-1, 0, -7}, losers)
	assert.Equal(t, len(values), len(winners)+len(losers))
}

func TestStreaks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		wins          []bool
		maxW, maxL    int
	}{
		{"empty", nil, 0, 0},
		{"all winners", []bool{true, true, true}, 3, 0},
		{"all losers", []bool{false, false}, 0, 2},
		{"mixed", []bool{true, false, false, true, true, true, false}, 3, 2},
		{"single", []bool{true}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, l := Streaks(tt.wins)
			assert.Equal(t, tt.maxW, w)
			assert.Equal(t, tt.maxL, l)
		})
	}
}

func TestStopHitPct(t *testing.T) {
	t.Parallel()

	assert.Nil(t, StopHitPct(nil, 8))

	got := StopHitPct([]float64{3, 15, 8, 60, math.NaN()}, 8)
	require.NotNil(t, got)
	assert.InDelta(t, 40.0, *got, 1e-9)
}
