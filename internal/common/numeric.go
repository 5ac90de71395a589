package common

import "math"

// Round2 rounds to two decimal places (half away from zero). Negative zero is normalised to zero.
func Round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		return 0
	}
	return r
}

// WithinTolerance reports whether |a-b| <= tol. A tiny epsilon absorbs
// binary representation error so that e.g. 50.00 vs 50.01 at tol 0.01 passes
// while 50.00 vs 50.02 does not.
func WithinTolerance(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol+floatEpsilon
}

// IsMissing reports whether a price value should be treated as absent.
func IsMissing(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v <= 0
}

// floatEpsilon absorbs binary representation error in tolerance comparisons
const floatEpsilon = 1e-9

// StrictlyWithin reports whether |a-b| is strictly less than tol. Values equal
// up to representation error always pass, so a zero tol means exact equality.
// With tol 0.01, 50.00 vs 50.01 fails.
func StrictlyWithin(a, b, tol float64) bool {
	d := math.Abs(a - b)
	return d <= floatEpsilon || d < tol-floatEpsilon
}
