package models

import (
	"math"
	"time"
)

// Candle represents an OHLCV record as stored in the candle tables.
type Candle struct {
	Bucket time.Time `json:"bucket"`
	Symbol string    `json:"symbol"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// OHLCVRecord is the wire form of one bar. Nil fields are missing values.
type OHLCVRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Open      *float64  `json:"open,omitempty"`
	High      *float64  `json:"high,omitempty"`
	Low       *float64  `json:"low,omitempty"`
	Close     *float64  `json:"close,omitempty"`
	Volume    *float64  `json:"volume,omitempty"`
}

// Frame is a column-oriented OHLCV series ordered by timestamp ascending.
// A nil column means the column is absent; NaN cells are missing values.
type Frame struct {
	Timestamps []time.Time
	Open       []float64
	High       []float64
	Low        []float64
	Close      []float64
	Volume     []float64
}

// Len is the number of rows.
func (f Frame) Len() int { return len(f.Timestamps) }

// NewFrame builds a frame from wire records. A column is present when at
// least one record carries it.
func NewFrame(records []OHLCVRecord) Frame {
	f := Frame{Timestamps: make([]time.Time, len(records))}
	for i, r := range records {
		f.Timestamps[i] = r.Timestamp
	}
	f.Open = column(records, func(r OHLCVRecord) *float64 { return r.Open })
	f.High = column(records, func(r OHLCVRecord) *float64 { return r.High })
	f.Low = column(records, func(r OHLCVRecord) *float64 { return r.Low })
	f.Close = column(records, func(r OHLCVRecord) *float64 { return r.Close })
	f.Volume = column(records, func(r OHLCVRecord) *float64 { return r.Volume })
	return f
}

func column(records []OHLCVRecord, get func(OHLCVRecord) *float64) []float64 {
	present := false
	for _, r := range records {
		if get(r) != nil {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	out := make([]float64, len(records))
	for i, r := range records {
		if v := get(r); v != nil {
			out[i] = *v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// FrameFromCandles builds a frame with every column present.
func FrameFromCandles(candles []Candle) Frame {
	n := len(candles)
	f := Frame{
		Timestamps: make([]time.Time, n),
		Open:       make([]float64, n),
		High:       make([]float64, n),
		Low:        make([]float64, n),
		Close:      make([]float64, n),
		Volume:     make([]float64, n),
	}
	for i, c := range candles {
		f.Timestamps[i] = c.Bucket
		f.Open[i] = c.Open
		f.High[i] = c.High
		f.Low[i] = c.Low
		f.Close[i] = c.Close
		f.Volume[i] = c.Volume
	}
	return f
}
