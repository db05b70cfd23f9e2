package stats

import "github.com/rustyeddy/tradestats/dataset"

// Classification selects how each trade becomes a winner or a loser.
type Classification struct {
	// Adjusted is set when stop/efficiency adjustment is active. The sign
	// of the adjusted gain then decides and labels are ignored.
	Adjusted bool
	// Derived forces the gain-sign rule even when labels are present.
	Derived bool
	// BreakevenIsWin counts a raw gain of exactly zero as a winner. It has
	// no effect once adjustment is active.
	BreakevenIsWin bool
}

// Classify returns one flag per trade, true for winners. labels may be nil.
func Classify(gains []float64, labels []dataset.Label, c Classification) []bool {
	wins := make([]bool, len(gains))
	for i, g := range gains {
		switch {
		case c.Adjusted:
			wins[i] = g > 0
		case !c.Derived && labels != nil && labels[i] != dataset.LabelUnknown:
			wins[i] = labels[i] == dataset.LabelWin
		case g == 0:
			wins[i] = c.BreakevenIsWin
		default:
			wins[i] = g > 0
		}
	}
	return wins
}

// Partition splits values into winner and loser buckets, keeping order.
func Partition(values []float64, wins []bool) (winners, losers []float64) {
	for i, v := range values {
		if wins[i] {
			winners = append(winners, v)
		} else {
			losers = append(losers, v)
		}
	}
	return winners, losers
}

// Streaks returns the longest run of consecutive winners and losers.
// wins must be in chronological order.
func Streaks(wins []bool) (maxWins, maxLosses int) {
	var curW, curL int
	for _, w := range wins {
		if w {
			curW++
			curL = 0
		} else {
			curL++
			curW = 0
		}
		maxWins = max(maxWins, curW)
		maxLosses = max(maxLosses, curL)
	}
	return maxWins, maxLosses
}

// StopHitPct is the percentage of trades whose MAE exceeded the stop.
// It is nil without an MAE column or for an empty trade set.
func StopHitPct(mae []float64, stopLossPct float64) *float64 {
	if len(mae) == 0 {
		return nil
	}
	hits := 0
	for _, m := range mae {
		if StopHit(m, stopLossPct) {
			hits++
		}
	}
	return ptr(float64(hits) / float64(len(mae)) * 100)
}
