package stats

import "math"

// Adjust applies the stop and execution slippage to one raw outcome.
//
// rawGain is a decimal fraction (0.05 = 5%); maePct, stopLossPct and
// efficiencyPct are percentage points. When the adverse excursion is
// strictly greater than the stop the outcome is capped at -stopLossPct.
// Efficiency is subtracted from every trade. The result is a decimal.
func Adjust(rawGain, maePct, stopLossPct, efficiencyPct float64) float64 {
	pct := rawGain * 100
	if StopHit(maePct, stopLossPct) {
		pct = -stopLossPct
	}
	pct -= efficiencyPct
	return pct / 100
}

// StopHit reports whether mae exceeded the stop. NaN never hits.
func StopHit(maePct, stopLossPct float64) bool {
	return maePct > stopLossPct
}

// AdjustGains applies Adjust over a whole column. A nil mae column applies
// only the efficiency slippage.
func AdjustGains(gains, mae []float64, p AdjustmentParams) []float64 {
	out := make([]float64, len(gains))
	for i, g := range gains {
		m := math.NaN()
		if mae != nil {
			m = mae[i]
		}
		out[i] = Adjust(g, m, p.StopLossPct, p.EfficiencyPct)
	}
	return out
}

// toPct converts decimal gains to percentage points.
func toPct(gains []float64) []float64 {
	out := make([]float64, len(gains))
	for i, g := range gains {
		out[i] = g * 100
	}
	return out
}
