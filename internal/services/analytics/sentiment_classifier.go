package analytics

import (
	"context"
	"encoding/json"
	"fmt"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
)

// HTTPSentimentClassifier calls a text-classification service. The service
// may answer with one {label, score} object or a list of them; for a list
// the highest score wins.
type HTTPSentimentClassifier struct {
	base    *HTTPServiceBase
	path    string
	retries int
}

type ClassifierOptions struct {
	URL     string
	Path    string
	Retries int
}

func NewHTTPSentimentClassifier(base *HTTPServiceBase, opts ClassifierOptions) *HTTPSentimentClassifier {
	path := opts.Path
	if path == "" {
		path = "/classify"
	}
	return &HTTPSentimentClassifier{base: base, path: path, retries: opts.Retries}
}

type classifyRequest struct {
	Text string `json:"text"`
}

func (c *HTTPSentimentClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	var raw json.RawMessage
	if err := c.base.PostJSONWithRetry(ctx, c.path, classifyRequest{Text: text}, &raw, c.retries+1); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("%w: %v", models.ErrClassification, err)
	}
	return decodeClassification(raw)
}

func decodeClassification(raw json.RawMessage) (models.ClassificationResult, error) {
	var one models.ClassificationResult
	if err := json.Unmarshal(raw, &one); err == nil && one.Label != "" {
		return one, nil
	}

	// some pipelines return [[{...}]] for a single input
	var nested [][]models.ClassificationResult
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) == 1 {
		return best(nested[0])
	}
	var many []models.ClassificationResult
	if err := json.Unmarshal(raw, &many); err == nil {
		return best(many)
	}
	return models.ClassificationResult{}, fmt.Errorf("%w: unrecognized response %.64s", models.ErrClassification, raw)
}

// best keeps the top-scoring label of a multi-label reply; one text yields
// one result.
func best(rs []models.ClassificationResult) (models.ClassificationResult, error) {
	if len(rs) == 0 {
		return models.ClassificationResult{}, fmt.Errorf("%w: empty response", models.ErrClassification)
	}
	top := rs[0]
	for _, r := range rs[1:] {
		if r.Score > top.Score {
			top = r
		}
	}
	return top, nil
}

var _ domsvc.Classifier = (*HTTPSentimentClassifier)(nil)
