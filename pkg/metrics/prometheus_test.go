package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

var _ domrepo.Metrics = (*Recorder)(nil)

func TestRecorderCounts(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordSignal("AAPL", models.AssetStock, models.ActionBuy)
	r.RecordSignal("MSFT", models.AssetStock, models.ActionBuy)
	r.RecordSignal("BTC", models.AssetCrypto, models.ActionSell)
	r.RecordOutcome(models.OutcomeDegraded)
	r.RecordClassification("timeout")
	r.RecordError("dispatch")
	r.RecordLatency("generate", 0.01)

	if got := testutil.ToFloat64(r.signals.WithLabelValues("BUY", "stock")); got != 2 {
		t.Fatalf("BUY/stock = %v", got)
	}
	if got := testutil.ToFloat64(r.signals.WithLabelValues("SELL", "crypto")); got != 1 {
		t.Fatalf("SELL/crypto = %v", got)
	}
	if got := testutil.ToFloat64(r.outcomes.WithLabelValues(string(models.OutcomeDegraded))); got != 1 {
		t.Fatalf("degraded = %v", got)
	}
	if got := testutil.ToFloat64(r.classifications.WithLabelValues("timeout")); got != 1 {
		t.Fatalf("timeout = %v", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("dispatch")); got != 1 {
		t.Fatalf("errors = %v", got)
	}
	if got := testutil.ToFloat64(r.lastSignal.WithLabelValues("AAPL")); got <= 0 {
		t.Fatalf("last signal gauge not set")
	}
	if n := testutil.CollectAndCount(r.latency); n != 1 {
		t.Fatalf("latency series = %d", n)
	}
}
