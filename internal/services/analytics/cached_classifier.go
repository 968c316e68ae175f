package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/service/cache"
	"FinSignal/pkg/logger"
)

const cacheKeyPrefix = "finsignal:cls:"

// CachedClassifier memoizes classifications by text hash. Cache errors are
// logged and fall through to the wrapped classifier.
type CachedClassifier struct {
	next  domsvc.Classifier
	cache cache.BytesCache
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedClassifier(next domsvc.Classifier, c cache.BytesCache, ttl time.Duration, log *logger.Logger) *CachedClassifier {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedClassifier{next: next, cache: c, ttl: ttl, log: log}
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedClassifier) Classify(ctx context.Context, text string) (models.ClassificationResult, error) {
	key := cacheKey(text)
	if b, ok, err := c.cache.GetBytes(ctx, key); err != nil {
		c.log.Warn("classification cache read failed", logger.Error(err))
	} else if ok {
		var r models.ClassificationResult
		if err := json.Unmarshal(b, &r); err == nil {
			return r, nil
		}
	}

	r, err := c.next.Classify(ctx, text)
	if err != nil {
		return r, err
	}
	if b, err := json.Marshal(r); err == nil {
		if err := c.cache.SetBytes(ctx, key, b, c.ttl); err != nil {
			c.log.Warn("classification cache write failed", logger.Error(err))
		}
	}
	return r, nil
}

var _ domsvc.Classifier = (*CachedClassifier)(nil)
