package models

import "time"

// EnrichedRow is one OHLCV row plus every derived indicator.
type EnrichedRow struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`

	SMAShort       float64 `json:"sma_short"`
	SMALong        float64 `json:"sma_long"`
	RSI            float64 `json:"rsi"`
	MACD           float64 `json:"macd"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerLower float64 `json:"bollinger_lower"`
	PriceChange    float64 `json:"price_change"`
	Volatility     float64 `json:"volatility"`
	VolumeRatio    float64 `json:"volume_ratio"`
}

// OutcomeKind tags how a preprocessing run ended.
type OutcomeKind string

const (
	OutcomeFull     OutcomeKind = "full"
	OutcomeDegraded OutcomeKind = "degraded"
	OutcomeFailed   OutcomeKind = "failed"
)

// PreprocessOutcome carries enriched rows for Full and Degraded runs, and
// the cause for Degraded and Failed runs.
type PreprocessOutcome struct {
	Kind   OutcomeKind
	Rows   []EnrichedRow
	Reason string
	Err    error
}

func FullOutcome(rows []EnrichedRow) PreprocessOutcome {
	return PreprocessOutcome{Kind: OutcomeFull, Rows: rows}
}

func DegradedOutcome(rows []EnrichedRow, reason string) PreprocessOutcome {
	return PreprocessOutcome{Kind: OutcomeDegraded, Rows: rows, Reason: reason}
}

func FailedOutcome(err error) PreprocessOutcome {
	return PreprocessOutcome{Kind: OutcomeFailed, Reason: err.Error(), Err: err}
}

// Usable reports whether the outcome carries rows the fusion stage can read.
func (o PreprocessOutcome) Usable() bool {
	return o.Kind != OutcomeFailed && len(o.Rows) > 0
}
