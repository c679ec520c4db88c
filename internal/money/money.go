// Package money holds the rounding helper shared by every component that
// touches amounts. All monetary values in the ledger are 2-decimal floats.
package money

import "math"

// Round2 rounds half away from zero to 2 decimals.
func Round2(v float64) float64 {
	if v < 0 {
		return -math.Floor(-v*100+0.5) / 100
	}
	return math.Floor(v*100+0.5) / 100
}
