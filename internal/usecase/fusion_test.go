package usecase

import (
	"strings"
	"testing"

	"FinSignal/internal/domain/models"
)

// neutralRows returns two rows where only the trend vote is set (BUY when up).
func neutralRows(up bool) []models.EnrichedRow {
	r := models.EnrichedRow{Close: 100, RSI: 50, MACD: 1, BollingerUpper: 110, BollingerLower: 90, SMAShort: 100, SMALong: 101}
	if up {
		r.SMAShort, r.SMALong = 101, 100
	}
	return []models.EnrichedRow{r, r}
}

func TestVotesNeedTwoRows(t *testing.T) {
	if v := Votes(nil); v != models.HoldVotes() {
		t.Fatalf("expected hold votes, got %v", v)
	}
	one := []models.EnrichedRow{{RSI: 10, SMAShort: 2, SMALong: 1}}
	if v := Votes(one); v != models.HoldVotes() {
		t.Fatalf("expected hold votes for one row, got %v", v)
	}
}

func TestVotesPerIndicator(t *testing.T) {
	rows := neutralRows(true)
	rows[1].RSI = 25
	rows[0].MACD, rows[1].MACD = 0, 0.3
	rows[1].Close = 89
	v := Votes(rows)
	want := models.TechnicalVotes{RSI: models.ActionBuy, MACD: models.ActionBuy, Trend: models.ActionBuy, Bollinger: models.ActionBuy}
	if v != want {
		t.Fatalf("expected %v, got %v", want, v)
	}

	rows = neutralRows(false)
	rows[1].RSI = 75
	rows[0].MACD, rows[1].MACD = 0.2, -0.1
	rows[1].Close = 110
	v = Votes(rows)
	want = models.TechnicalVotes{RSI: models.ActionSell, MACD: models.ActionSell, Trend: models.ActionSell, Bollinger: models.ActionSell}
	if v != want {
		t.Fatalf("expected %v, got %v", want, v)
	}
}

func TestTrendVoteNeverHolds(t *testing.T) {
	rows := neutralRows(false)
	rows[1].SMAShort, rows[1].SMALong = 100, 100
	if v := Votes(rows); v.Trend != models.ActionSell {
		t.Fatalf("expected SELL on equal averages, got %s", v.Trend)
	}
}

func TestFuseSentimentWeight(t *testing.T) {
	pos := models.SentimentResult{Overall: models.SentimentPositive}
	neg := models.SentimentResult{Overall: models.SentimentNegative}

	// one dissenting indicator is outvoted
	f := Fuse(neutralRows(false), &pos)
	if f.Action != models.ActionBuy || !near(f.Confidence, 2.0/3) {
		t.Fatalf("expected BUY at 2/3, got %s at %v", f.Action, f.Confidence)
	}

	// four indicators are not
	rows := neutralRows(true)
	rows[1].RSI = 20
	rows[0].MACD, rows[1].MACD = -1, 1
	rows[1].Close = 80
	f = Fuse(rows, &neg)
	if f.Action != models.ActionBuy || !near(f.Confidence, 4.0/6) {
		t.Fatalf("expected BUY at 4/6, got %s at %v", f.Action, f.Confidence)
	}
}

func TestFuseNoClearSignal(t *testing.T) {
	neutral := models.DefaultSentiment()
	f := Fuse([]models.EnrichedRow{{Close: 10}}, &neutral)
	if f.Action != models.ActionHold || f.Confidence != 0.5 || f.Rationale != "No clear signal" {
		t.Fatalf("unexpected fusion %+v", f)
	}
}

func TestFuseTieIsSellAtHalf(t *testing.T) {
	rows := neutralRows(true)
	rows[1].RSI = 80
	f := Fuse(rows, nil)
	if f.Action != models.ActionSell || f.Confidence != 0.5 {
		t.Fatalf("expected SELL at 0.5, got %s at %v", f.Action, f.Confidence)
	}
}

func TestFuseConfidenceCapped(t *testing.T) {
	f := Fuse(neutralRows(true), nil)
	if f.Action != models.ActionBuy || f.Confidence != 0.95 {
		t.Fatalf("expected capped BUY, got %s at %v", f.Action, f.Confidence)
	}
}

func TestFuseRationale(t *testing.T) {
	f := Fuse(neutralRows(true), nil)
	want := "Tech: {rsi_signal: HOLD, macd_signal: HOLD, trend_signal: BUY, bollinger_signal: HOLD}, Sentiment: None"
	if f.Rationale != want {
		t.Fatalf("unexpected rationale %q", f.Rationale)
	}

	s := models.SentimentResult{
		Distribution: models.SentimentDistribution{Positive: 0.6, Negative: 0.1, Neutral: 0.3},
		Overall:      models.SentimentPositive,
		Confidence:   0.6,
	}
	f = Fuse(neutralRows(true), &s)
	if !strings.HasSuffix(f.Rationale, "Sentiment: {overall_sentiment: positive, confidence: 0.6000, sentiment_distribution: {positive: 0.6000, negative: 0.1000, neutral: 0.3000}}") {
		t.Fatalf("unexpected rationale %q", f.Rationale)
	}
}

func TestPriceTargetAndStopLoss(t *testing.T) {
	up := []models.EnrichedRow{{Close: 100, Volatility: 0.01, SMAShort: 2, SMALong: 1}}
	down := []models.EnrichedRow{{Close: 100, Volatility: 0.01, SMAShort: 1, SMALong: 2}}

	if got := PriceTarget(up); got != 102 {
		t.Fatalf("expected 102, got %v", got)
	}
	if got := PriceTarget(down); got != 98 {
		t.Fatalf("expected 98, got %v", got)
	}
	cases := map[models.Action]float64{models.ActionBuy: 98.5, models.ActionSell: 101.5, models.ActionHold: 100}
	for action, want := range cases {
		if got := StopLoss(up, action); got != want {
			t.Fatalf("%s: expected %v, got %v", action, want, got)
		}
	}
}

func TestRound2HalfAwayFromZero(t *testing.T) {
	cases := map[float64]float64{1.005: 1.01, 2.675: 2.68, -1.005: -1.01, 123.454: 123.45, 0: 0}
	for in, want := range cases {
		if got := round2(in); got != want {
			t.Fatalf("round2(%v): expected %v, got %v", in, want, got)
		}
	}
}
