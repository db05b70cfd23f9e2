package stats

import (
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datedTable(t *testing.T, gains []float64, dates []time.Time) *dataset.Table {
	t.Helper()
	tbl := gainTable(t, gains)
	require.NoError(t, tbl.SetTime("date", dates))
	return tbl
}

func TestYearlyUsesGlobalPeak(t *testing.T) {
	t.Parallel()

	tbl := datedTable(t, []float64{0.50, -0.20}, []time.Time{day(2023, 6, 1), day(2024, 6, 1)})
	years, err := Yearly(tbl, BreakdownOptions{
		Columns:      Columns{Gain: "gain", Date: "date"},
		FlatStake:    1000,
		StartCapital: 10000,
	})
	require.NoError(t, err)
	require.Len(t, years, 2)

	y1 := years["2023"]
	assert.Equal(t, "2023", y1.Period)
	assert.InDelta(t, 0, *y1.MaxDrawdown, 1e-9)
	assert.InDelta(t, 50, *y1.TotalGainPct, 1e-9)
	assert.InDelta(t, 500, *y1.TotalFlatStake, 1e-9)

	y2 := years["2024"]
	assert.InDelta(t, 200, *y2.MaxDrawdown, 1e-9)
	require.NotNil(t, y2.MaxDrawdownPct)
	assert.InDelta(t, 200.0/10500*100, *y2.MaxDrawdownPct, 1e-9)
	assert.InDelta(t, 1.905, *y2.MaxDrawdownPct, 1e-3)
}

func TestYearlyDrawdownCarriesIntoLaterPeriod(t *testing.T) {
	t.Parallel()

	// Peak is set in 2022; 2023 opens below it and falls further.
	tbl := datedTable(t,
		[]float64{0.40, -0.10, -0.05, -0.15, 0.05},
		[]time.Time{day(2022, 3, 1), day(2022, 9, 1), day(2023, 1, 5), day(2023, 2, 5), day(2023, 3, 5)},
	)
	years, err := Yearly(tbl, BreakdownOptions{Columns: Columns{Gain: "gain", Date: "date"}})
	require.NoError(t, err)

	// curve: 10000, 10400, 10300, 10250, 10100, 10150
	y := years["2023"]
	peakBefore := 10400.0
	minIn := 10100.0
	assert.InDelta(t, peakBefore-minIn, *y.MaxDrawdown, 1e-9)
	assert.NotEqual(t, 10250.0-minIn, *y.MaxDrawdown)
	assert.Equal(t, 3, y.Count)
}

func TestYearlyLocalStats(t *testing.T) {
	t.Parallel()

	tbl := datedTable(t,
		[]float64{0.10, -0.02, 0.04, 0.06},
		[]time.Time{day(2023, 1, 1), day(2023, 2, 1), day(2024, 1, 1), day(2024, 2, 1)},
	)
	years, err := Yearly(tbl, BreakdownOptions{Columns: Columns{Gain: "gain", Date: "date"}})
	require.NoError(t, err)

	y1 := years["2023"]
	assert.InDelta(t, 50, *y1.WinRate, 1e-9)
	assert.InDelta(t, 10, *y1.AvgWinnerPct, 1e-9)
	assert.InDelta(t, -2, *y1.AvgLoserPct, 1e-9)
	assert.InDelta(t, 4, *y1.EVPct, 1e-9)

	y2 := years["2024"]
	assert.InDelta(t, 100, *y2.WinRate, 1e-9)
	assert.Nil(t, y2.AvgLoserPct)
	assert.InDelta(t, 5, *y2.EVPct, 1e-9)
}

func TestMonthlyKeysAndGlobalCurve(t *testing.T) {
	t.Parallel()

	tbl := datedTable(t,
		[]float64{0.30, -0.10, 0.05, -0.02},
		[]time.Time{day(2023, 12, 10), day(2024, 1, 3), day(2024, 1, 20), day(2024, 3, 2)},
	)
	months, err := Monthly(tbl, 2024, BreakdownOptions{Columns: Columns{Gain: "gain", Date: "date"}})
	require.NoError(t, err)

	require.Len(t, months, 2)
	jan, ok := months["Jan"]
	require.True(t, ok)
	assert.Equal(t, 2, jan.Count)
	// peak 10300 from December 2023
	assert.InDelta(t, 100, *jan.MaxDrawdown, 1e-9)

	_, ok = months["Feb"]
	assert.False(t, ok)

	mar := months["Mar"]
	// 10300 -> 10200 -> 10250 -> 10230
	assert.InDelta(t, 70, *mar.MaxDrawdown, 1e-9)
}

func TestBreakdownAppliesAdjustmentOnce(t *testing.T) {
	t.Parallel()

	tbl := datedTable(t, []float64{0.20, -0.10}, []time.Time{day(2024, 1, 1), day(2024, 2, 1)})
	require.NoError(t, tbl.SetFloat("mae", []float64{3, 15}))

	years, err := Yearly(tbl, BreakdownOptions{
		Columns:    Columns{Gain: "gain", Date: "date", MAE: "mae"},
		Adjustment: &AdjustmentParams{StopLossPct: 8, EfficiencyPct: 5},
	})
	require.NoError(t, err)
	y := years["2024"]
	assert.InDelta(t, 2, *y.TotalGainPct, 1e-9)
	assert.InDelta(t, 15, *y.AvgWinnerPct, 1e-9)
	assert.InDelta(t, -13, *y.AvgLoserPct, 1e-9)
}

func TestBreakdownSkipsUndatedRows(t *testing.T) {
	t.Parallel()

	tbl := datedTable(t, []float64{0.10, 0.20}, []time.Time{{}, day(2024, 5, 1)})
	years, err := Yearly(tbl, BreakdownOptions{Columns: Columns{Gain: "gain", Date: "date"}})
	require.NoError(t, err)
	require.Len(t, years, 1)
	assert.Equal(t, 1, years["2024"].Count)
}

func TestBreakdownRequiresDate(t *testing.T) {
	t.Parallel()

	_, err := Yearly(gainTable(t, []float64{0.1}), BreakdownOptions{Columns: Columns{Gain: "gain"}})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = Yearly(gainTable(t, []float64{0.1}), BreakdownOptions{Columns: Columns{Gain: "gain", Date: "date"}})
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestAvailableYears(t *testing.T) {
	t.Parallel()

	tbl := datedTable(t,
		[]float64{0.1, 0.1, 0.1, 0.1},
		[]time.Time{day(2024, 1, 1), day(2022, 1, 1), {}, day(2024, 7, 1)},
	)
	years, err := AvailableYears(tbl, Columns{Date: "date"})
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2024}, years)

	_, err = AvailableYears(tbl, Columns{Gain: "gain"})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestAvailableYearsMatchesYearlyKeys(t *testing.T) {
	t.Parallel()

	// 2024 only has a trade with no gain, so Yearly drops it.
	tbl := datedTable(t, []float64{0.1, math.NaN()}, []time.Time{day(2023, 4, 1), day(2024, 4, 1)})
	cols := Columns{Gain: "gain", Date: "date"}

	years, err := AvailableYears(tbl, cols)
	require.NoError(t, err)
	assert.Equal(t, []int{2023}, years)

	byYear, err := Yearly(tbl, BreakdownOptions{Columns: cols})
	require.NoError(t, err)
	require.Len(t, byYear, len(years))
	for _, y := range years {
		assert.Contains(t, byYear, strconv.Itoa(y))
	}

	_, err = AvailableYears(tbl, Columns{Gain: "mae", Date: "date"})
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}
