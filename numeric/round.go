package numeric

import "math"

// Direction selects how Round truncates at the decimal scale.
type Direction int

const (
	Nearest Direction = iota
	Up
	Down
)

// Round shifts v by decimals, applies the direction function and shifts back.
// Up and Down are ceiling/floor at the decimal scale, never bankers' rounding.
func Round(v float64, decimals int, dir Direction) float64 {
	scale := math.Pow10(decimals)
	switch dir {
	case Up:
		return math.Ceil(v*scale) / scale
	case Down:
		return math.Floor(v*scale) / scale
	default:
		return math.Round(v*scale) / scale
	}
}
