package scoring

import "math"

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// toHundredths converts a two-decimal value to an exact integer amount of hundredths.
func toHundredths(v float64) int64 {
	return int64(math.Round(v * 100))
}
