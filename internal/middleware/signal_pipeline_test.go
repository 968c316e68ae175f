package middleware

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
)

type flakyDispatcher struct {
	mu    sync.Mutex
	fail  bool
	calls int
	got   []models.TradingSignal
}

func (d *flakyDispatcher) Dispatch(_ context.Context, s models.TradingSignal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.fail {
		return errors.New("down")
	}
	d.got = append(d.got, s)
	return nil
}

func (d *flakyDispatcher) setFail(v bool) {
	d.mu.Lock()
	d.fail = v
	d.mu.Unlock()
}

func (d *flakyDispatcher) delivered() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.got)
}

var t0 = time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)

func signal(symbol string, action models.Action, confidence float64) models.TradingSignal {
	return models.NewTradingSignal(models.TradingSignalParams{
		Symbol:      symbol,
		AssetType:   models.AssetStock,
		Action:      action,
		Confidence:  confidence,
		PriceTarget: 101,
		StopLoss:    99,
		Timestamp:   t0,
	})
}

func TestValidateSignal(t *testing.T) {
	if err := ValidateSignal(signal("AAPL", models.ActionBuy, 0.95)); err != nil {
		t.Fatalf("valid signal rejected: %v", err)
	}
	bad := []models.TradingSignal{
		signal("", models.ActionBuy, 0.6),
		signal("AAPL", models.Action("STRONG_BUY"), 0.6),
		signal("AAPL", models.ActionBuy, 0.99),
		signal("AAPL", models.ActionBuy, math.NaN()),
		models.NewTradingSignal(models.TradingSignalParams{Symbol: "AAPL", Action: models.ActionHold, Confidence: 0.5, PriceTarget: math.Inf(1), Timestamp: t0}),
		models.NewTradingSignal(models.TradingSignalParams{Symbol: "AAPL", Action: models.ActionHold, Confidence: 0.5}),
	}
	for i, s := range bad {
		if err := ValidateSignal(s); err == nil {
			t.Fatalf("case %d: expected rejection", i)
		}
	}
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	d := &flakyDispatcher{}
	p := NewSignalPipeline(d, nil, WithMinInterval(time.Minute))
	now := t0
	p.now = func() time.Time { return now }

	ctx := context.Background()
	_ = p.Process(ctx, signal("AAPL", models.ActionBuy, 0.6))
	_ = p.Process(ctx, signal("AAPL", models.ActionSell, 0.6))
	_ = p.Process(ctx, signal("MSFT", models.ActionBuy, 0.6))
	if d.delivered() != 2 {
		t.Fatalf("delivered %d, want 2", d.delivered())
	}

	now = now.Add(time.Minute)
	_ = p.Process(ctx, signal("AAPL", models.ActionSell, 0.6))
	if d.delivered() != 3 {
		t.Fatalf("delivered %d after interval, want 3", d.delivered())
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	d := &flakyDispatcher{}
	p := NewSignalPipeline(d, nil)
	if err := p.Process(context.Background(), signal("", models.ActionBuy, 0.6)); err == nil {
		t.Fatalf("expected validation error")
	}
	if d.calls != 0 {
		t.Fatalf("invalid signal reached the dispatcher")
	}
}

func TestPipelineBuffersAndRedelivers(t *testing.T) {
	d := &flakyDispatcher{fail: true}
	p := NewSignalPipeline(d, nil, WithMinInterval(0), WithRetryInterval(5*time.Millisecond), WithBufferSize(4))

	if err := p.Process(context.Background(), signal("AAPL", models.ActionBuy, 0.6)); err == nil {
		t.Fatalf("expected downstream error")
	}
	if p.Buffered() != 1 {
		t.Fatalf("buffered = %d", p.Buffered())
	}

	d.setFail(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for d.delivered() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered signal was not redelivered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if p.Buffered() != 0 {
		t.Fatalf("buffer not drained")
	}
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	p := NewSignalPipeline(&flakyDispatcher{}, nil)
	p.Stop()
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
