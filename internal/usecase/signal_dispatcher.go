package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	drepo "FinSignal/internal/domain/repository"
)

// Dispatch backends.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
	BackendBoth       = "both"
	BackendNone       = "none"
)

// SignalDispatcher routes generated signals to the configured sinks and to
// live subscribers.
type SignalDispatcher struct {
	pub     drepo.SignalPublisher
	store   drepo.SignalStorage
	hub     drepo.SignalBroadcaster
	metrics drepo.Metrics
	backend string
}

func NewSignalDispatcher(
	pub drepo.SignalPublisher,
	store drepo.SignalStorage,
	hub drepo.SignalBroadcaster,
	metrics drepo.Metrics,
	backend string,
) (*SignalDispatcher, error) {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	switch backend {
	case BackendKafka:
		if pub == nil {
			return nil, fmt.Errorf("backend %s needs a publisher", backend)
		}
	case BackendClickHouse:
		if store == nil {
			return nil, fmt.Errorf("backend %s needs storage", backend)
		}
	case BackendBoth:
		if pub == nil || store == nil {
			return nil, fmt.Errorf("backend %s needs a publisher and storage", backend)
		}
	case BackendNone, "":
		backend = BackendNone
	default:
		return nil, fmt.Errorf("unknown backend: %s", backend)
	}
	return &SignalDispatcher{pub: pub, store: store, hub: hub, metrics: metrics, backend: backend}, nil
}

// Backend is the resolved backend name.
func (d *SignalDispatcher) Backend() string { return d.backend }

// Dispatch sends one signal. Subscribers are notified only after the
// durable sinks accepted it.
func (d *SignalDispatcher) Dispatch(ctx context.Context, s models.TradingSignal) error {
	return d.DispatchBatch(ctx, []models.TradingSignal{s})
}

func (d *SignalDispatcher) DispatchBatch(ctx context.Context, signals []models.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}
	start := time.Now()

	var errs []error
	if d.backend == BackendKafka || d.backend == BackendBoth {
		if err := d.pub.PublishBatch(ctx, signals); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}
	if d.backend == BackendClickHouse || d.backend == BackendBoth {
		if err := d.store.StoreBatch(ctx, signals); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.metrics.RecordError("dispatch")
		return fmt.Errorf("dispatch %d signals: %w", len(signals), err)
	}

	if d.hub != nil {
		for _, s := range signals {
			d.hub.Broadcast(s)
		}
	}
	d.metrics.RecordLatency("dispatch", time.Since(start).Seconds())
	return nil
}

// Close releases the publisher and storage.
func (d *SignalDispatcher) Close() error {
	var errs []error
	if d.pub != nil {
		errs = append(errs, d.pub.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}
