package models

import "fmt"

// Sentiment buckets.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ClassificationResult is what a text classifier returns for one text.
type ClassificationResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentDistribution is a normalized three-way split.
type SentimentDistribution struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Sum of the three buckets.
func (d SentimentDistribution) Sum() float64 {
	return d.Positive + d.Negative + d.Neutral
}

// Dominant returns the highest bucket; ties go to positive, then negative.
func (d SentimentDistribution) Dominant() (string, float64) {
	label, v := SentimentPositive, d.Positive
	if d.Negative > v {
		label, v = SentimentNegative, d.Negative
	}
	if d.Neutral > v {
		label, v = SentimentNeutral, d.Neutral
	}
	return label, v
}

func (d SentimentDistribution) String() string {
	return fmt.Sprintf("{positive: %.4f, negative: %.4f, neutral: %.4f}", d.Positive, d.Negative, d.Neutral)
}

// SentimentResult is the aggregated view of a news batch.
type SentimentResult struct {
	Distribution SentimentDistribution `json:"sentiment_distribution"`
	Overall      string                `json:"overall_sentiment"`
	Confidence   float64               `json:"confidence"`
}

// DefaultSentiment is returned when nothing could be classified.
func DefaultSentiment() SentimentResult {
	return SentimentResult{
		Distribution: SentimentDistribution{Positive: 0.33, Negative: 0.33, Neutral: 0.34},
		Overall:      SentimentNeutral,
		Confidence:   0.5,
	}
}

func (s SentimentResult) String() string {
	return fmt.Sprintf("{overall_sentiment: %s, confidence: %.4f, sentiment_distribution: %s}",
		s.Overall, s.Confidence, s.Distribution)
}
