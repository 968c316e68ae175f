// Package sentiment turns per-text classifier output into one
// three-way sentiment distribution.
package sentiment

import (
	"strings"

	"FinSignal/internal/domain/models"
)

// normalizeLabel maps a classifier label to a bucket by case-insensitive
// substring match. "positive" is checked first, so a label containing both
// "positive" and "negative" lands in the positive bucket.
func normalizeLabel(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(l, models.SentimentPositive):
		return models.SentimentPositive
	case strings.Contains(l, models.SentimentNegative):
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Aggregate sums scores per bucket and normalizes by the total. An empty
// batch, or one whose scores sum to zero, gives DefaultSentiment.
func Aggregate(results []models.ClassificationResult) models.SentimentResult {
	if len(results) == 0 {
		return models.DefaultSentiment()
	}

	var d models.SentimentDistribution
	for _, r := range results {
		switch normalizeLabel(r.Label) {
		case models.SentimentPositive:
			d.Positive += r.Score
		case models.SentimentNegative:
			d.Negative += r.Score
		default:
			d.Neutral += r.Score
		}
	}

	total := d.Sum()
	if total <= 0 {
		return models.DefaultSentiment()
	}
	d.Positive /= total
	d.Negative /= total
	d.Neutral /= total

	overall, confidence := d.Dominant()
	return models.SentimentResult{Distribution: d, Overall: overall, Confidence: confidence}
}
