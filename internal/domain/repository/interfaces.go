package repository

import (
	"context"

	"FinSignal/internal/domain/models"
)

// SignalPublisher pushes generated signals to a stream.
type SignalPublisher interface {
	Publish(ctx context.Context, s models.TradingSignal) error
	PublishBatch(ctx context.Context, signals []models.TradingSignal) error
	Close() error
}

// SignalStorage archives generated signals.
type SignalStorage interface {
	Store(ctx context.Context, s models.TradingSignal) error
	StoreBatch(ctx context.Context, signals []models.TradingSignal) error
	Health(ctx context.Context) error
	Close() error
}

// SignalBroadcaster fans signals out to live subscribers.
type SignalBroadcaster interface {
	Broadcast(s models.TradingSignal)
}

// NewsSource returns recent news texts for a symbol.
type NewsSource interface {
	RecentNews(ctx context.Context, symbol string) ([]string, error)
}

type Metrics interface {
	RecordSignal(symbol string, asset models.AssetType, action models.Action)
	RecordOutcome(kind models.OutcomeKind)
	RecordClassification(result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordSignal(string, models.AssetType, models.Action) {}
func (NopMetrics) RecordOutcome(models.OutcomeKind)                     {}
func (NopMetrics) RecordClassification(string)                          {}
func (NopMetrics) RecordError(string)                                   {}
func (NopMetrics) RecordLatency(string, float64)                        {}
