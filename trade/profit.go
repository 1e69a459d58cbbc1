package trade

import "math/rand"

// profitFactor draws a randomized take-profit multiplier in the form 1.023.
// min and max are profit percents; equal bounds degenerate to a fixed profit.
func profitFactor(minPct, maxPct float64, uniform func() float64) float64 {
	if uniform == nil {
		uniform = rand.Float64
	}
	pct := minPct + (maxPct-minPct)*uniform()
	return (pct + 100) / 100
}
