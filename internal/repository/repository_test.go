package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

func TestBuildInsertSkipsBlankSymbols(t *testing.T) {
	id := uuid.MustParse("5b1d5c38-0d7e-4b9e-9a4c-0f2e8a1f7c11")
	s := &ClickHouseSignalStorage{table: "finsignal.trading_signals", newID: func() uuid.UUID { return id }}
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	sig := models.NewTradingSignal(models.TradingSignalParams{
		Symbol: "AAPL", AssetType: models.AssetStock, Action: models.ActionBuy,
		Confidence: 0.75, PriceTarget: 101.255, StopLoss: 98.5, Timestamp: ts, Rationale: "r",
	})

	q, args := s.buildInsert([]models.TradingSignal{sig, models.NewTradingSignal(models.TradingSignalParams{})})
	if strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?, ?)") != 1 || !strings.HasPrefix(q, "INSERT INTO finsignal.trading_signals") {
		t.Fatalf("unexpected query %q", q)
	}
	if len(args) != 9 || args[0] != id || args[2] != "AAPL" || args[4] != "BUY" {
		t.Fatalf("unexpected args %v", args)
	}
	if got := args[1].(time.Time); got.Location() != time.UTC || !got.Equal(ts) {
		t.Fatalf("expected UTC timestamp, got %v", got)
	}
	if got := args[6].(decimal.Decimal); got.String() != "101.26" {
		t.Fatalf("expected rounded target, got %s", got)
	}

	if q, _ := s.buildInsert(nil); q != "" {
		t.Fatalf("expected empty query for no rows")
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements("finsignal")
	if len(stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(stmts))
	}
	for _, tf := range []domrepo.Timeframe{domrepo.TF1m, domrepo.TF5m, domrepo.TF1h, domrepo.TF1d} {
		want := "finsignal." + candleTable(tf)
		found := false
		for _, s := range stmts {
			found = found || strings.Contains(s, want+" (")
		}
		if !found {
			t.Fatalf("missing table %s", want)
		}
	}
}

func TestTableForTF(t *testing.T) {
	s := &CHFeatureStore{database: "finsignal"}
	if got, err := s.tableForTF(domrepo.TF1h); err != nil || got != "finsignal.candles_1h" {
		t.Fatalf("unexpected table %q, %v", got, err)
	}
	if _, err := s.tableForTF("3m"); err == nil {
		t.Fatalf("expected error for unsupported timeframe")
	}
}
