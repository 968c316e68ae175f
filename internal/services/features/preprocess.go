package features

import (
	"fmt"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/services/indicators"
)

const (
	ShortWindow    = 20
	LongWindow     = 50
	MomentumPeriod = indicators.DefaultMomentumPeriod
	BandPeriod     = 20
	BandWidth      = 2.0

	// envelope used instead of Bollinger bands on short series
	shortSeriesBand = 0.02
)

// WindowPlan is the windowing strategy for one series, chosen once from its
// length and shared by every indicator.
type WindowPlan struct {
	Short     indicators.Window
	Long      indicators.Window
	Momentum  indicators.Window
	FullBands bool
}

// PlanWindows picks rolling windows where the series can fill them and
// expanding windows elsewhere.
func PlanWindows(n int) WindowPlan {
	return WindowPlan{
		Short:     indicators.ChooseWindow(n, ShortWindow),
		Long:      indicators.ChooseWindow(n, LongWindow),
		Momentum:  indicators.ChooseWindow(n, MomentumPeriod),
		FullBands: n >= BandPeriod,
	}
}

// Preprocessor validates OHLCV frames and enriches them with indicators.
type Preprocessor struct {
	compute func(models.Frame, WindowPlan) ([]models.EnrichedRow, error)
}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{compute: enrich}
}

// Validate checks that the frame has rows and the mandatory columns.
func Validate(f models.Frame) error {
	n := f.Len()
	if n == 0 {
		return &models.ValidationError{Reason: "market data is empty"}
	}
	if f.Close == nil {
		return &models.ValidationError{Field: "close", Reason: "column is missing"}
	}
	if f.Volume == nil {
		return &models.ValidationError{Field: "volume", Reason: "column is missing"}
	}
	for name, col := range map[string][]float64{"open": f.Open, "high": f.High, "low": f.Low, "close": f.Close, "volume": f.Volume} {
		if col != nil && len(col) != n {
			return &models.ValidationError{Field: name, Reason: fmt.Sprintf("has %d values, expected %d", len(col), n)}
		}
	}
	return nil
}

// Preprocess returns Failed for invalid input, Full when every indicator
// could be computed, and Degraded (moving averages and price change only)
// when the full computation failed.
func (p *Preprocessor) Preprocess(f models.Frame) models.PreprocessOutcome {
	if err := Validate(f); err != nil {
		return models.FailedOutcome(err)
	}

	rows, err := p.guarded(f, PlanWindows(f.Len()))
	if err == nil {
		return models.FullOutcome(rows)
	}

	fallback, ferr := degraded(f)
	if ferr != nil {
		return models.FailedOutcome(fmt.Errorf("degraded fallback: %w (full path: %v)", ferr, err))
	}
	return models.DegradedOutcome(fallback, err.Error())
}

func (p *Preprocessor) guarded(f models.Frame, plan WindowPlan) (rows []models.EnrichedRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("indicator panic: %v", r)
		}
	}()
	return p.compute(f, plan)
}

func enrich(f models.Frame, plan WindowPlan) ([]models.EnrichedRow, error) {
	n := f.Len()
	closes := f.Close

	smaShort := indicators.Mean(closes, plan.Short)
	smaLong := indicators.Mean(closes, plan.Long)
	volumeSMA := indicators.Mean(f.Volume, plan.Short)
	rsi := indicators.MomentumOscillatorWindow(closes, plan.Momentum)
	macd := indicators.TrendOscillator(closes, indicators.DefaultFastSpan, indicators.DefaultSlowSpan)

	var upper, lower []float64
	if plan.FullBands {
		upper, lower = indicators.VolatilityBands(closes, BandPeriod, BandWidth)
	} else {
		upper = indicators.Scale(closes, 1+shortSeriesBand)
		lower = indicators.Scale(closes, 1-shortSeriesBand)
	}

	priceChange := indicators.PctChange(closes)
	volatility := indicators.Std(priceChange, plan.Short)

	volumeRatio := make([]float64, n)
	for i := range volumeRatio {
		d := volumeSMA[i]
		if d == 0 {
			d = 1
		}
		volumeRatio[i] = f.Volume[i] / d
	}

	derived := map[string][]float64{
		"sma_short":       smaShort,
		"sma_long":        smaLong,
		"rsi":             rsi,
		"macd":            macd,
		"bollinger_upper": upper,
		"bollinger_lower": lower,
		"price_change":    priceChange,
		"volatility":      volatility,
		"volume_ratio":    volumeRatio,
	}
	for name, col := range derived {
		if !indicators.AllFinite(indicators.FillGaps(col)) {
			return nil, fmt.Errorf("%s: non-finite values after fill", name)
		}
	}

	base := filledBase(f, indicators.FillGaps)
	if !indicators.AllFinite(base.Close) {
		return nil, fmt.Errorf("close: non-finite values after fill")
	}

	rows := make([]models.EnrichedRow, n)
	for i := range rows {
		rows[i] = baseRow(base, i)
		rows[i].SMAShort = smaShort[i]
		rows[i].SMALong = smaLong[i]
		rows[i].RSI = rsi[i]
		rows[i].MACD = macd[i]
		rows[i].BollingerUpper = upper[i]
		rows[i].BollingerLower = lower[i]
		rows[i].PriceChange = priceChange[i]
		rows[i].Volatility = volatility[i]
		rows[i].VolumeRatio = volumeRatio[i]
	}
	return rows, nil
}

// degraded keeps the original rows plus expanding moving averages and price
// change. Missing values become 0 without neighbour filling.
func degraded(f models.Frame) ([]models.EnrichedRow, error) {
	sma := indicators.ZeroFill(indicators.Mean(f.Close, indicators.Expanding()))
	priceChange := indicators.ZeroFill(indicators.PctChange(f.Close))
	base := filledBase(f, indicators.ZeroFill)

	for name, col := range map[string][]float64{"close": base.Close, "sma": sma, "price_change": priceChange} {
		if !indicators.AllFinite(col) {
			return nil, fmt.Errorf("%s: non-finite values", name)
		}
	}

	rows := make([]models.EnrichedRow, f.Len())
	for i := range rows {
		rows[i] = baseRow(base, i)
		rows[i].SMAShort = sma[i]
		rows[i].SMALong = sma[i]
		rows[i].PriceChange = priceChange[i]
	}
	return rows, nil
}

// filledBase copies the OHLCV columns, applies fill, and zero-fills absent ones.
func filledBase(f models.Frame, fill func([]float64) []float64) models.Frame {
	cp := func(col []float64) []float64 {
		out := make([]float64, f.Len())
		if col == nil {
			return out
		}
		copy(out, col)
		return fill(out)
	}
	return models.Frame{
		Timestamps: f.Timestamps,
		Open:       cp(f.Open),
		High:       cp(f.High),
		Low:        cp(f.Low),
		Close:      cp(f.Close),
		Volume:     cp(f.Volume),
	}
}

func baseRow(f models.Frame, i int) models.EnrichedRow {
	return models.EnrichedRow{
		Timestamp: f.Timestamps[i],
		Open:      f.Open[i],
		High:      f.High[i],
		Low:       f.Low[i],
		Close:     f.Close[i],
		Volume:    f.Volume[i],
	}
}
