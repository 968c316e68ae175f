package repository

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
)

// FeatureStore provides read-only access to candles.
type FeatureStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}
