package features

import (
	"math"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
)

func makeFrame(closes, volumes []float64) models.Frame {
	ts := make([]time.Time, len(closes))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * 24 * time.Hour)
	}
	return models.Frame{Timestamps: ts, Close: closes, Volume: volumes}
}

func linear(n int, base, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = base + step*float64(i)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func assertFinite(t *testing.T, rows []models.EnrichedRow) {
	t.Helper()
	for i, r := range rows {
		for name, v := range map[string]float64{
			"close": r.Close, "sma_short": r.SMAShort, "sma_long": r.SMALong, "rsi": r.RSI,
			"macd": r.MACD, "bollinger_upper": r.BollingerUpper, "bollinger_lower": r.BollingerLower,
			"price_change": r.PriceChange, "volatility": r.Volatility, "volume_ratio": r.VolumeRatio,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("row %d: %s is not finite: %v", i, name, v)
			}
		}
	}
}

func TestPreprocessRejectsInvalidFrames(t *testing.T) {
	p := NewPreprocessor()
	cases := map[string]models.Frame{
		"empty":          {},
		"missing volume": makeFrame([]float64{1, 2}, nil),
		"missing close":  makeFrame(nil, []float64{1, 2}),
		"short volume":   makeFrame([]float64{1, 2}, []float64{1}),
	}
	for name, f := range cases {
		if name == "missing close" {
			f.Timestamps = make([]time.Time, 2)
		}
		out := p.Preprocess(f)
		if out.Kind != models.OutcomeFailed {
			t.Fatalf("%s: expected failed outcome, got %s", name, out.Kind)
		}
		if !models.IsValidation(out.Err) {
			t.Fatalf("%s: expected validation error, got %v", name, out.Err)
		}
	}
}

func TestPreprocessShortSeriesUsesFixedEnvelope(t *testing.T) {
	closes := []float64{10, 11, 12.5, 9.75, 13, 14, 12, 11, 10.5, 15}
	out := NewPreprocessor().Preprocess(makeFrame(closes, constant(len(closes), 1000)))
	if out.Kind != models.OutcomeFull {
		t.Fatalf("expected full outcome, got %s (%s)", out.Kind, out.Reason)
	}
	for i, r := range out.Rows {
		if r.BollingerUpper != closes[i]*1.02 || r.BollingerLower != closes[i]*0.98 {
			t.Fatalf("row %d: expected ±2%% envelope, got %v/%v", i, r.BollingerUpper, r.BollingerLower)
		}
	}
	assertFinite(t, out.Rows)
}

func TestPreprocessSingleRow(t *testing.T) {
	out := NewPreprocessor().Preprocess(makeFrame([]float64{150}, []float64{1e6}))
	if out.Kind != models.OutcomeFull || len(out.Rows) != 1 {
		t.Fatalf("expected one full row, got %s with %d rows", out.Kind, len(out.Rows))
	}
	r := out.Rows[0]
	if r.PriceChange != 0 || r.Volatility != 0 {
		t.Fatalf("expected zero-filled change and volatility, got %v/%v", r.PriceChange, r.Volatility)
	}
	if r.RSI != 50 || r.SMAShort != 150 || r.SMALong != 150 || r.VolumeRatio != 1 {
		t.Fatalf("unexpected single-row indicators %+v", r)
	}
}

func TestPreprocessRollingWindowsOnLongSeries(t *testing.T) {
	closes := linear(60, 100, 1)
	out := NewPreprocessor().Preprocess(makeFrame(closes, constant(60, 500)))
	if out.Kind != models.OutcomeFull {
		t.Fatalf("expected full outcome, got %s", out.Kind)
	}
	assertFinite(t, out.Rows)
	last := out.Rows[59]
	// mean of closes[40:60] and closes[10:60]
	if math.Abs(last.SMAShort-149.5) > 1e-9 || math.Abs(last.SMALong-134.5) > 1e-9 {
		t.Fatalf("unexpected moving averages %v/%v", last.SMAShort, last.SMALong)
	}
	if out.Rows[0].BollingerUpper != out.Rows[19].BollingerUpper {
		t.Fatalf("expected leading bands back-filled from first full window")
	}
	if out.Rows[0].PriceChange != out.Rows[1].PriceChange {
		t.Fatalf("expected first price change back-filled")
	}
}

func TestPreprocessFillsMissingCloses(t *testing.T) {
	closes := []float64{10, math.NaN(), 12, 13}
	out := NewPreprocessor().Preprocess(makeFrame(closes, constant(4, 1)))
	if out.Kind != models.OutcomeFull {
		t.Fatalf("expected full outcome, got %s", out.Kind)
	}
	if out.Rows[1].Close != 12 {
		t.Fatalf("expected missing close back-filled to 12, got %v", out.Rows[1].Close)
	}
	assertFinite(t, out.Rows)
}

func TestPreprocessZeroVolumeGuard(t *testing.T) {
	out := NewPreprocessor().Preprocess(makeFrame(linear(5, 10, 1), constant(5, 0)))
	for i, r := range out.Rows {
		if r.VolumeRatio != 0 {
			t.Fatalf("row %d: expected 0/1 volume ratio, got %v", i, r.VolumeRatio)
		}
	}
}

func TestPreprocessDegradesOnOverflow(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 1e200
		if i%2 == 1 {
			closes[i] = 3e200
		}
	}
	out := NewPreprocessor().Preprocess(makeFrame(closes, constant(25, 1)))
	if out.Kind != models.OutcomeDegraded {
		t.Fatalf("expected degraded outcome, got %s", out.Kind)
	}
	if out.Reason == "" {
		t.Fatalf("expected a reason for degradation")
	}
	r := out.Rows[24]
	if r.SMAShort != r.SMALong || r.RSI != 0 || r.BollingerUpper != 0 || r.Volatility != 0 {
		t.Fatalf("unexpected degraded row %+v", r)
	}
	if out.Rows[0].PriceChange != 0 {
		t.Fatalf("expected first price change zero-filled, got %v", out.Rows[0].PriceChange)
	}
}

func TestPreprocessDegradesOnPanic(t *testing.T) {
	p := NewPreprocessor()
	p.compute = func(models.Frame, WindowPlan) ([]models.EnrichedRow, error) {
		var xs []float64
		_ = xs[3]
		return nil, nil
	}
	out := p.Preprocess(makeFrame(linear(5, 10, 1), constant(5, 1)))
	if out.Kind != models.OutcomeDegraded || len(out.Rows) != 5 {
		t.Fatalf("expected degraded outcome with 5 rows, got %s/%d", out.Kind, len(out.Rows))
	}
	if out.Rows[4].SMAShort != 12 {
		t.Fatalf("expected expanding mean 12, got %v", out.Rows[4].SMAShort)
	}
}

func TestPreprocessFailsOnInfiniteClose(t *testing.T) {
	out := NewPreprocessor().Preprocess(makeFrame([]float64{1, math.Inf(1), 3}, constant(3, 1)))
	if out.Kind != models.OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", out.Kind)
	}
	if models.IsValidation(out.Err) {
		t.Fatalf("expected a computation failure, not a validation error")
	}
}

func TestPlanWindows(t *testing.T) {
	short := PlanWindows(10)
	if !short.Short.IsExpanding() || !short.Long.IsExpanding() || short.FullBands {
		t.Fatalf("unexpected plan for short series %+v", short)
	}
	long := PlanWindows(50)
	if long.Short.Size() != 20 || long.Long.Size() != 50 || !long.FullBands {
		t.Fatalf("unexpected plan for long series %+v", long)
	}
}
