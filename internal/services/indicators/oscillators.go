package indicators

import "math"

const (
	DefaultMomentumPeriod = 14
	DefaultFastSpan       = 12
	DefaultSlowSpan       = 26
	neutralMomentum       = 50.0
)

// MomentumOscillator is the relative strength index over period samples.
// It averages gains and losses over a rolling window when the series is
// longer than period and over an expanding window otherwise; with
// min-period semantics both give the same values for short series.
func MomentumOscillator(prices []float64, period int) []float64 {
	return MomentumOscillatorWindow(prices, ChooseWindow(len(prices), period))
}

// MomentumOscillatorWindow computes the RSI with an explicit window.
// Wherever the average loss is zero or the ratio is undefined the value is 50.
func MomentumOscillatorWindow(prices []float64, w Window) []float64 {
	n := len(prices)
	gain := make([]float64, n)
	loss := make([]float64, n)
	for i := 1; i < n; i++ {
		d := prices[i] - prices[i-1]
		switch {
		case d > 0:
			gain[i] = d
		case d < 0:
			loss[i] = -d
		}
	}

	avgGain := Mean(gain, w)
	avgLoss := Mean(loss, w)

	out := make([]float64, n)
	for i := range out {
		out[i] = rsiValue(avgGain[i], avgLoss[i])
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 || math.IsNaN(avgLoss) || math.IsNaN(avgGain) {
		return neutralMomentum
	}
	rsi := 100 - 100/(1+avgGain/avgLoss)
	switch {
	case math.IsNaN(rsi):
		return neutralMomentum
	case rsi < 0:
		return 0
	case rsi > 100:
		return 100
	}
	return rsi
}

// EMA is the exponential moving average with alpha = 2/(span+1), seeded with
// the first valid value and without bias correction. NaN inputs carry the
// previous average forward, but its weight keeps decaying by (1-alpha) per
// missing step, so a gap of k rows discounts it by (1-alpha)^(k+1).
func EMA(prices []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(prices))
	prev, seeded := math.NaN(), false
	oldWt := 1.0
	for i, p := range prices {
		switch {
		case !seeded && math.IsNaN(p):
		case !seeded:
			prev, seeded = p, true
		case math.IsNaN(p):
			oldWt *= 1 - alpha
		default:
			oldWt *= 1 - alpha
			prev = (oldWt*prev + alpha*p) / (oldWt + alpha)
			oldWt = 1
		}
		out[i] = prev
	}
	return out
}

// TrendOscillator is EMA(fast) - EMA(slow), the MACD line.
func TrendOscillator(prices []float64, fast, slow int) []float64 {
	f := EMA(prices, fast)
	s := EMA(prices, slow)
	out := make([]float64, len(prices))
	for i := range out {
		out[i] = f[i] - s[i]
	}
	return out
}

// VolatilityBands returns the Bollinger upper and lower bands: a strict
// rolling mean plus/minus width sample standard deviations. The first
// period-1 values are NaN.
func VolatilityBands(prices []float64, period int, width float64) (upper, lower []float64) {
	mean := StrictRollingMean(prices, period)
	std := StrictRollingStd(prices, period)
	upper = make([]float64, len(prices))
	lower = make([]float64, len(prices))
	for i := range prices {
		upper[i] = mean[i] + width*std[i]
		lower[i] = mean[i] - width*std[i]
	}
	return upper, lower
}
