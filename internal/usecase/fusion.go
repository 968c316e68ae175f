package usecase

import (
	"math"

	"FinSignal/internal/domain/models"
)

const (
	// sentimentWeight lets sentiment outvote one dissenting indicator but
	// not four.
	sentimentWeight = 2

	maxConfidence  = 0.95
	holdConfidence = 0.5

	rsiOversold   = 30.0
	rsiOverbought = 70.0

	noClearSignal = "No clear signal"
)

// Fusion is the fused decision for the latest row.
type Fusion struct {
	Action     models.Action
	Confidence float64
	Rationale  string
	Votes      models.TechnicalVotes
}

// Votes derives one vote per indicator family from the last two rows.
// With fewer than two rows every vote is HOLD.
func Votes(rows []models.EnrichedRow) models.TechnicalVotes {
	if len(rows) < 2 {
		return models.HoldVotes()
	}
	latest, prev := rows[len(rows)-1], rows[len(rows)-2]

	v := models.HoldVotes()
	switch {
	case latest.RSI < rsiOversold:
		v.RSI = models.ActionBuy
	case latest.RSI > rsiOverbought:
		v.RSI = models.ActionSell
	}

	switch {
	case prev.MACD <= 0 && latest.MACD > 0:
		v.MACD = models.ActionBuy
	case prev.MACD >= 0 && latest.MACD < 0:
		v.MACD = models.ActionSell
	}

	if latest.SMAShort > latest.SMALong {
		v.Trend = models.ActionBuy
	} else {
		v.Trend = models.ActionSell
	}

	switch {
	case latest.Close <= latest.BollingerLower:
		v.Bollinger = models.ActionBuy
	case latest.Close >= latest.BollingerUpper:
		v.Bollinger = models.ActionSell
	}
	return v
}

// Fuse tallies indicator votes plus the weighted sentiment vote. A nil
// sentiment contributes nothing and renders as None.
func Fuse(rows []models.EnrichedRow, sentiment *models.SentimentResult) Fusion {
	votes := Votes(rows)

	buy, sell := 0, 0
	for _, a := range votes.All() {
		switch a {
		case models.ActionBuy:
			buy++
		case models.ActionSell:
			sell++
		}
	}
	if sentiment != nil {
		switch sentiment.Overall {
		case models.SentimentPositive:
			buy += sentimentWeight
		case models.SentimentNegative:
			sell += sentimentWeight
		}
	}

	total := buy + sell
	if total == 0 {
		return Fusion{Action: models.ActionHold, Confidence: holdConfidence, Rationale: noClearSignal, Votes: votes}
	}

	action := models.ActionSell
	if buy > sell {
		action = models.ActionBuy
	}
	share := float64(max(buy, sell)) / float64(total)
	return Fusion{
		Action:     action,
		Confidence: math.Min(maxConfidence, share),
		Rationale:  rationale(votes, sentiment),
		Votes:      votes,
	}
}

func rationale(votes models.TechnicalVotes, sentiment *models.SentimentResult) string {
	s := "None"
	if sentiment != nil {
		s = sentiment.String()
	}
	return "Tech: " + votes.String() + ", Sentiment: " + s
}
