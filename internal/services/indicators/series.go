package indicators

import "math"

// PctChange is the fractional change from the previous value, with missing
// values padded by the last valid one. A gap row therefore has no change.
// The first value, leading NaNs and zero divisors give NaN.
func PctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	prev := math.NaN()
	for i, v := range xs {
		out[i] = math.NaN()
		if math.IsNaN(v) {
			v = prev
		}
		if !math.IsNaN(prev) && !math.IsNaN(v) && prev != 0 {
			out[i] = v/prev - 1
		}
		if !math.IsNaN(v) {
			prev = v
		}
	}
	return out
}

// BackFill replaces each NaN with the next valid value, in place.
func BackFill(xs []float64) []float64 {
	next := math.NaN()
	for i := len(xs) - 1; i >= 0; i-- {
		if math.IsNaN(xs[i]) {
			xs[i] = next
		} else {
			next = xs[i]
		}
	}
	return xs
}

// ForwardFill replaces each NaN with the previous valid value, in place.
func ForwardFill(xs []float64) []float64 {
	prev := math.NaN()
	for i, v := range xs {
		if math.IsNaN(v) {
			xs[i] = prev
		} else {
			prev = v
		}
	}
	return xs
}

// ZeroFill replaces NaN with 0, in place.
func ZeroFill(xs []float64) []float64 {
	for i, v := range xs {
		if math.IsNaN(v) {
			xs[i] = 0
		}
	}
	return xs
}

// FillGaps back-fills, forward-fills, then zero-fills, in place.
func FillGaps(xs []float64) []float64 {
	return ZeroFill(ForwardFill(BackFill(xs)))
}

// AllFinite reports whether xs holds no NaN or infinity.
func AllFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Scale returns xs multiplied by k.
func Scale(xs []float64, k float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = v * k
	}
	return out
}
