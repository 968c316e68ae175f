package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"FinSignal/internal/domain/models"
)

type scriptedGenerator struct {
	inflight, peak int32
}

func (g *scriptedGenerator) GenerateTradingSignals(ctx context.Context, in models.SignalInput) []models.TradingSignal {
	n := atomic.AddInt32(&g.inflight, 1)
	defer atomic.AddInt32(&g.inflight, -1)
	for {
		p := atomic.LoadInt32(&g.peak)
		if n <= p || atomic.CompareAndSwapInt32(&g.peak, p, n) {
			break
		}
	}

	switch in.Symbol {
	case "EMPTY":
		return []models.TradingSignal{}
	case "SLOW":
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return []models.TradingSignal{}
	}
	time.Sleep(5 * time.Millisecond)
	return []models.TradingSignal{models.NewTradingSignal(models.TradingSignalParams{Symbol: in.Symbol, Action: models.ActionBuy, Confidence: 0.75})}
}

func TestBatchIsolatesFailures(t *testing.T) {
	gen := &scriptedGenerator{}
	b := NewBatch(gen, 2, time.Second)
	res := b.Generate(context.Background(), []models.SignalInput{{Symbol: "AAPL"}, {Symbol: "EMPTY"}, {Symbol: "MSFT"}, {Symbol: "GOOG"}})

	for _, sym := range []string{"AAPL", "MSFT", "GOOG"} {
		if len(res.Signals[sym]) != 1 || res.Signals[sym][0].Symbol() != sym {
			t.Fatalf("%s: unexpected signals %v", sym, res.Signals[sym])
		}
	}
	if got, ok := res.Signals["EMPTY"]; !ok || len(got) != 0 {
		t.Fatalf("expected empty list for EMPTY, got %v", got)
	}
	if res.Errors["EMPTY"] != ErrNoSignal.Error() || len(res.Errors) != 1 {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if p := atomic.LoadInt32(&gen.peak); p > 2 {
		t.Fatalf("expected at most 2 concurrent runs, got %d", p)
	}
}

func TestBatchTimeout(t *testing.T) {
	b := NewBatch(&scriptedGenerator{}, 4, 50*time.Millisecond)
	res := b.Generate(context.Background(), []models.SignalInput{{Symbol: "AAPL"}, {Symbol: "SLOW"}})
	if len(res.Signals["AAPL"]) != 1 {
		t.Fatalf("expected AAPL to complete, got %v", res.Signals["AAPL"])
	}
	if res.Errors["SLOW"] != "timed out" {
		t.Fatalf("expected SLOW to time out, got %v", res.Errors)
	}
}

func TestBatchWithEngine(t *testing.T) {
	b := NewBatch(newTestEngine(newCapability(nil)), 3, time.Second)
	broken := uptrend(10)
	broken.Close = nil
	res := b.Generate(context.Background(), []models.SignalInput{
		{Symbol: "UP", Frame: uptrend(50)},
		{Symbol: "BROKEN", Frame: broken},
	})
	if len(res.Signals["UP"]) != 1 || res.Signals["UP"][0].Action() != models.ActionBuy {
		t.Fatalf("unexpected UP signals %v", res.Signals["UP"])
	}
	if len(res.Signals["BROKEN"]) != 0 || res.Errors["BROKEN"] == "" {
		t.Fatalf("expected BROKEN to fail alone, got %v / %v", res.Signals["BROKEN"], res.Errors)
	}
}
