package utils

import "math"

// Percent returns part as a percentage of total, rounded to one decimal.
// A zero total yields 0.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}
