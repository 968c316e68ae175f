// Package indicators holds pure technical-indicator functions over float
// series. Every function returns a slice of the same length as its input and
// uses NaN for undefined outputs.
package indicators

import (
	"fmt"
	"math"
)

// Window selects which samples an aggregate at index i sees.
// A rolling window covers the trailing size samples (fewer at the start of the
// series); an expanding window covers everything from index 0.
type Window struct {
	size int
}

// Rolling returns a trailing window of n samples.
func Rolling(n int) Window {
	if n < 1 {
		n = 1
	}
	return Window{size: n}
}

// Expanding returns a from-start window.
func Expanding() Window { return Window{} }

// ChooseWindow picks Rolling(nominal) when the series is long enough to fill
// it, and Expanding otherwise.
func ChooseWindow(seriesLen, nominal int) Window {
	if seriesLen >= nominal {
		return Rolling(nominal)
	}
	return Expanding()
}

func (w Window) IsExpanding() bool { return w.size == 0 }

// Size is 0 for expanding windows.
func (w Window) Size() int { return w.size }

func (w Window) String() string {
	if w.IsExpanding() {
		return "expanding"
	}
	return fmt.Sprintf("rolling(%d)", w.size)
}

func (w Window) start(i int) int {
	if w.IsExpanding() {
		return 0
	}
	if s := i - w.size + 1; s > 0 {
		return s
	}
	return 0
}

// Mean is the windowed mean over the valid (non-NaN) samples.
func Mean(xs []float64, w Window) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		sum, n := 0.0, 0
		for j := w.start(i); j <= i; j++ {
			if !math.IsNaN(xs[j]) {
				sum += xs[j]
				n++
			}
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Std is the windowed sample standard deviation (n-1 denominator) over the
// valid samples. Fewer than two valid samples give NaN.
func Std(xs []float64, w Window) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = sampleStd(xs[w.start(i) : i+1])
	}
	return out
}

// StrictRollingMean is NaN until a full window of n valid samples exists.
func StrictRollingMean(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		win, ok := fullWindow(xs, i, n)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for _, v := range win {
			sum += v
		}
		out[i] = sum / float64(n)
	}
	return out
}

// StrictRollingStd is the sample standard deviation over full windows only.
func StrictRollingStd(xs []float64, n int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		win, ok := fullWindow(xs, i, n)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		out[i] = sampleStd(win)
	}
	return out
}

func fullWindow(xs []float64, i, n int) ([]float64, bool) {
	if n < 1 || i+1 < n {
		return nil, false
	}
	win := xs[i-n+1 : i+1]
	for _, v := range win {
		if math.IsNaN(v) {
			return nil, false
		}
	}
	return win, true
}

func sampleStd(xs []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range xs {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n < 2 {
		return math.NaN()
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, v := range xs {
		if !math.IsNaN(v) {
			d := v - mean
			ss += d * d
		}
	}
	return math.Sqrt(ss / float64(n-1))
}
