package stats

// SimulateFlatStake risks the same dollar stake on every trade:
// equity[i] = equity[i-1] + stake*pctReturns[i]/100.
// The result starts with the capital before any trade and is nil for
// empty input.
func SimulateFlatStake(pctReturns []float64, stake, startCapital float64) []EquityPoint {
	if len(pctReturns) == 0 {
		return nil
	}
	curve := make([]EquityPoint, 0, len(pctReturns)+1)
	curve = append(curve, EquityPoint{TradeIndex: 0, Equity: startCapital})

	equity := startCapital
	for i, r := range pctReturns {
		equity += stake * r / 100
		curve = append(curve, EquityPoint{
			TradeIndex:   i + 1,
			Equity:       equity,
			PositionSize: stake,
		})
	}
	return curve
}

// SimulateKelly compounds a fixed fraction of current equity:
// position[i] = max(0, equity[i-1]) * fraction.
// Once equity reaches zero or below the account is blown: position stays
// zero and equity no longer moves.
func SimulateKelly(pctReturns []float64, fraction, startCapital float64) []EquityPoint {
	if len(pctReturns) == 0 {
		return nil
	}
	curve := make([]EquityPoint, 0, len(pctReturns)+1)
	curve = append(curve, EquityPoint{TradeIndex: 0, Equity: startCapital})

	equity := startCapital
	for i, r := range pctReturns {
		var pos float64
		if equity > 0 {
			pos = equity * fraction
		}
		equity += pos * r / 100
		curve = append(curve, EquityPoint{
			TradeIndex:   i + 1,
			Equity:       equity,
			PositionSize: pos,
		})
	}
	return curve
}

// RunningPeak returns the highest equity seen up to and including each
// point.
func RunningPeak(curve []EquityPoint) []float64 {
	peaks := make([]float64, len(curve))
	for i, p := range curve {
		if i == 0 || p.Equity > peaks[i-1] {
			peaks[i] = p.Equity
		} else {
			peaks[i] = peaks[i-1]
		}
	}
	return peaks
}

// DrawdownStats summarises the worst peak-to-trough decline of a curve.
type DrawdownStats struct {
	MaxDrawdown float64
	// MaxDrawdownPct is relative to the peak in force at the trough; nil
	// when that peak is not positive.
	MaxDrawdownPct *float64
	// Trough is the index into the curve of the maximum drawdown.
	Trough   int
	Peak     float64
	Recovery Recovery
	// Blown is set when a compounded curve reached zero equity.
	Blown bool
}

// Drawdown computes drawdown and recovery for a curve. compounded enables
// blown-account detection. ok is false for an empty curve.
func Drawdown(curve []EquityPoint, compounded bool) (DrawdownStats, bool) {
	if len(curve) == 0 {
		return DrawdownStats{}, false
	}
	peaks := RunningPeak(curve)

	var st DrawdownStats
	for i, p := range curve {
		if dd := peaks[i] - p.Equity; dd > st.MaxDrawdown {
			st.MaxDrawdown = dd
			st.Trough = i
		}
		if compounded && i > 0 && p.Equity <= 0 {
			st.Blown = true
		}
	}
	st.Peak = peaks[st.Trough]
	st.MaxDrawdownPct = drawdownPct(st.MaxDrawdown, st.Peak)
	st.Recovery = recovery(curve, st, compounded)
	return st, true
}

func drawdownPct(dd, peak float64) *float64 {
	if dd == 0 {
		return ptr(0.0)
	}
	if peak <= 0 {
		return nil
	}
	return ptr(dd / peak * 100)
}

func recovery(curve []EquityPoint, st DrawdownStats, compounded bool) Recovery {
	if st.MaxDrawdown == 0 {
		return RecoveredIn(0)
	}
	for j := st.Trough + 1; j < len(curve); j++ {
		if curve[j].Equity >= st.Peak {
			return RecoveredIn(j - st.Trough)
		}
	}
	if compounded && st.Blown {
		return Recovery{State: Blown}
	}
	return Recovery{State: NotRecovered}
}

// summarize turns a simulated curve into a PnLSummary.
func summarize(curve []EquityPoint, compounded bool) *PnLSummary {
	st, ok := Drawdown(curve, compounded)
	if !ok {
		return nil
	}
	start := curve[0].Equity
	final := curve[len(curve)-1].Equity
	return &PnLSummary{
		PnL:            ptr(final - start),
		FinalEquity:    ptr(final),
		MaxDrawdown:    ptr(st.MaxDrawdown),
		MaxDrawdownPct: st.MaxDrawdownPct,
		Recovery:       st.Recovery,
		Blown:          st.Blown,
	}
}
