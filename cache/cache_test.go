package cache

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/tradestats/dataset"
	"github.com/rustyeddy/tradestats/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, gains []float64) *dataset.Table {
	t.Helper()
	tbl := dataset.New(len(gains))
	require.NoError(t, tbl.SetFloat("gain", gains))
	return tbl
}

func TestKeyOfIsContentHash(t *testing.T) {
	t.Parallel()

	opts := stats.Options{Columns: stats.Columns{Gain: "gain"}}

	k1, err := KeyOf(table(t, []float64{0.1, math.NaN()}), opts)
	require.NoError(t, err)
	k2, err := KeyOf(table(t, []float64{0.1, math.NaN()}), opts)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, string(k1), 64)

	k3, err := KeyOf(table(t, []float64{0.1, 0.2}), opts)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	opts.BreakevenIsWin = true
	k4, err := KeyOf(table(t, []float64{0.1, math.NaN()}), opts)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)
}

func TestKeyOfCoversEveryKind(t *testing.T) {
	t.Parallel()

	build := func(ticker string) *dataset.Table {
		tbl := table(t, []float64{0.1})
		require.NoError(t, tbl.SetTime("date", []time.Time{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}))
		require.NoError(t, tbl.SetClock("time", []time.Duration{time.Hour}))
		require.NoError(t, tbl.SetLabel("wl", []dataset.Label{dataset.LabelWin}))
		require.NoError(t, tbl.SetText("ticker", []string{ticker}))
		return tbl
	}

	a, err := KeyOf(build("AAPL"), nil)
	require.NoError(t, err)
	b, err := KeyOf(build("MSFT"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMemoryPutGetEvict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory(2)

	_, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "a", Entry{RunID: "1"}))
	require.NoError(t, m.Put(ctx, "b", Entry{RunID: "2"}))
	require.NoError(t, m.Put(ctx, "a", Entry{RunID: "3"}))

	e, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", e.RunID)

	require.NoError(t, m.Put(ctx, "c", Entry{RunID: "4"}))
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok, "oldest key is evicted first")
	for _, k := range []Key{"b", "c"} {
		_, ok, _ = m.Get(ctx, k)
		assert.True(t, ok, string(k))
	}
}
