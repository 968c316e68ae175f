package usecase

import (
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
)

const (
	targetVolMultiple = 2.0
	stopVolMultiple   = 1.5
)

// PriceTarget scales the latest close by 2x volatility, upward when the
// short moving average is above the long one.
func PriceTarget(rows []models.EnrichedRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	last := rows[len(rows)-1]
	move := targetVolMultiple * last.Volatility
	if last.SMAShort > last.SMALong {
		return round2(last.Close * (1 + move))
	}
	return round2(last.Close * (1 - move))
}

// StopLoss sits 1.5x volatility against the position; HOLD keeps the close.
func StopLoss(rows []models.EnrichedRow, action models.Action) float64 {
	if len(rows) == 0 {
		return 0
	}
	last := rows[len(rows)-1]
	move := stopVolMultiple * last.Volatility
	switch action {
	case models.ActionBuy:
		return round2(last.Close * (1 - move))
	case models.ActionSell:
		return round2(last.Close * (1 + move))
	default:
		return round2(last.Close)
	}
}

// round2 rounds half away from zero to cents.
func round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
