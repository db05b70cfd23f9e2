package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateFlatStake(t *testing.T) {
	t.Parallel()

	curve := SimulateFlatStake([]float64{50, -20, 10}, 1000, 10000)
	require.Len(t, curve, 4)

	assert.Equal(t, EquityPoint{TradeIndex: 0, Equity: 10000}, curve[0])
	assert.InDelta(t, 10500, curve[1].Equity, 1e-9)
	assert.InDelta(t, 10300, curve[2].Equity, 1e-9)
	assert.InDelta(t, 10400, curve[3].Equity, 1e-9)
	for _, p := range curve[1:] {
		assert.Equal(t, 1000.0, p.PositionSize)
	}
}

func TestSimulateFlatStakeIdempotent(t *testing.T) {
	t.Parallel()

	returns := []float64{1.3, -0.7, 2.9, -4.1, 0.01, 13.37}
	a := SimulateFlatStake(returns, 250, 5000)
	b := SimulateFlatStake(returns, 250, 5000)
	assert.Equal(t, a, b)
}

func TestSimulateEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, SimulateFlatStake(nil, 1000, 10000))
	assert.Nil(t, SimulateKelly([]float64{}, 0.1, 10000))

	_, ok := Drawdown(nil, false)
	assert.False(t, ok)
}

func TestSimulateKellyCompounds(t *testing.T) {
	t.Parallel()

	curve := SimulateKelly([]float64{10, -10}, 0.5, 1000)
	require.Len(t, curve, 3)

	assert.InDelta(t, 500, curve[1].PositionSize, 1e-9)
	assert.InDelta(t, 1050, curve[1].Equity, 1e-9)
	assert.InDelta(t, 525, curve[2].PositionSize, 1e-9)
	assert.InDelta(t, 997.5, curve[2].Equity, 1e-9)
}

func TestSimulateKellyBlownStaysBlown(t *testing.T) {
	t.Parallel()

	// A loss beyond -100% on a full-fraction stake wipes the account.
	curve := SimulateKelly([]float64{20, -150, 80, 40, -10}, 1, 1000)
	require.Len(t, curve, 6)

	blownAt := -1
	for i, p := range curve {
		if blownAt >= 0 {
			assert.Equal(t, 0.0, p.PositionSize, "point %d", i)
			assert.LessOrEqual(t, p.Equity, 0.0, "point %d", i)
		}
		if i > 0 && p.Equity <= 0 && blownAt < 0 {
			blownAt = i
		}
	}
	assert.Equal(t, 2, blownAt)

	st, ok := Drawdown(curve, true)
	require.True(t, ok)
	assert.True(t, st.Blown)
	assert.Equal(t, Recovery{State: Blown}, st.Recovery)
	assert.Equal(t, "Blown", st.Recovery.String())
}

func TestRunningPeak(t *testing.T) {
	t.Parallel()

	curve := []EquityPoint{{Equity: 100}, {Equity: 90}, {Equity: 120}, {Equity: 110}}
	assert.Equal(t, []float64{100, 100, 120, 120}, RunningPeak(curve))
}

func TestDrawdownRecovery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		equity   []float64
		maxDD    float64
		ddPct    float64
		recovery Recovery
	}{
		{
			name:     "recovers after two trades",
			equity:   []float64{100, 120, 90, 110, 125},
			maxDD:    30,
			ddPct:    25,
			recovery: RecoveredIn(2),
		},
		{
			name:     "never recovers",
			equity:   []float64{100, 120, 90, 100},
			maxDD:    30,
			ddPct:    25,
			recovery: Recovery{State: NotRecovered},
		},
		{
			name:     "no drawdown",
			equity:   []float64{100, 101, 102},
			maxDD:    0,
			ddPct:    0,
			recovery: RecoveredIn(0),
		},
		{
			name:     "single point",
			equity:   []float64{100},
			maxDD:    0,
			ddPct:    0,
			recovery: RecoveredIn(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curve := make([]EquityPoint, len(tt.equity))
			for i, e := range tt.equity {
				curve[i] = EquityPoint{TradeIndex: i, Equity: e}
			}
			st, ok := Drawdown(curve, false)
			require.True(t, ok)
			assert.InDelta(t, tt.maxDD, st.MaxDrawdown, 1e-9)
			require.NotNil(t, st.MaxDrawdownPct)
			assert.InDelta(t, tt.ddPct, *st.MaxDrawdownPct, 1e-9)
			assert.Equal(t, tt.recovery, st.Recovery)
			assert.False(t, st.Blown)
		})
	}
}

func TestDrawdownPctNilWithoutPositivePeak(t *testing.T) {
	t.Parallel()

	curve := SimulateFlatStake([]float64{-10, 5}, 100, 0)
	st, ok := Drawdown(curve, false)
	require.True(t, ok)
	assert.InDelta(t, 10, st.MaxDrawdown, 1e-9)
	assert.Nil(t, st.MaxDrawdownPct)
}

func TestRecoveryJSON(t *testing.T) {
	t.Parallel()

	for _, r := range []Recovery{RecoveredIn(4), {State: NotRecovered}, {State: Blown}} {
		b, err := r.MarshalJSON()
		require.NoError(t, err)
		var back Recovery
		require.NoError(t, back.UnmarshalJSON(b))
		assert.Equal(t, r, back)
	}

	b, err := RecoveredIn(3).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"recovered","trades":3}`, string(b))
	assert.Equal(t, "3 trades", RecoveredIn(3).String())
	assert.Equal(t, "Not recovered", Recovery{State: NotRecovered}.String())
}
