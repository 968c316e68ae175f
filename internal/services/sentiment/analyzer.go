package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/pkg/logger"
)

const (
	DefaultWorkers    = 4
	DefaultTimeout    = 5 * time.Second
	DefaultMaxTextLen = 512
)

// Classification outcomes reported to metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultTimeout = "timeout"
	ResultInvalid = "invalid"
)

type Option func(*Analyzer)

func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithMaxTextLen(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxLen = n
		}
	}
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

// Analyzer classifies news texts concurrently and aggregates the results.
// One failing text never aborts the batch.
type Analyzer struct {
	cap     domsvc.Capability
	metrics domrepo.Metrics
	workers int
	timeout time.Duration
	maxLen  int
}

func NewAnalyzer(cap domsvc.Capability, opts ...Option) *Analyzer {
	a := &Analyzer{
		cap:     cap,
		metrics: domrepo.NopMetrics{},
		workers: DefaultWorkers,
		timeout: DefaultTimeout,
		maxLen:  DefaultMaxTextLen,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type classified struct {
	result models.ClassificationResult
	ok     bool
}

// Analyze classifies every valid text and aggregates the survivors.
func (a *Analyzer) Analyze(ctx context.Context, texts []string) models.SentimentResult {
	prepared := a.prepare(texts)
	if len(prepared) == 0 {
		return models.DefaultSentiment()
	}

	out := make([]classified, len(prepared))
	jobs := make(chan int)
	workers := a.workers
	if workers > len(prepared) {
		workers = len(prepared)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := a.classifyOne(ctx, prepared[i])
				if err != nil {
					a.cap.Warn("text classification skipped",
						logger.Int("index", i),
						logger.Int("text_len", utf8.RuneCountInString(prepared[i])),
						logger.Error(err),
					)
					continue
				}
				out[i] = classified{result: res, ok: true}
			}
		}()
	}
	for i := range prepared {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	results := make([]models.ClassificationResult, 0, len(out))
	for _, c := range out {
		if c.ok {
			results = append(results, c.result)
		}
	}
	if len(results) < len(prepared) {
		a.cap.Debug("sentiment batch partially classified",
			logger.Int("texts", len(prepared)),
			logger.Int("classified", len(results)),
		)
	}
	return Aggregate(results)
}

func (a *Analyzer) prepare(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if !utf8.ValidString(t) {
			continue
		}
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, truncateRunes(t, a.maxLen))
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// classifyOne bounds a single call by the per-text timeout, even when the
// classifier ignores its context.
func (a *Analyzer) classifyOne(ctx context.Context, text string) (models.ClassificationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type reply struct {
		res models.ClassificationResult
		err error
	}
	done := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("%w: classifier panic: %v", models.ErrClassification, r)}
			}
		}()
		res, err := a.cap.Classify(ctx, text)
		done <- reply{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		a.metrics.RecordClassification(ResultTimeout)
		return models.ClassificationResult{}, fmt.Errorf("%w: %v", models.ErrClassification, ctx.Err())
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) {
				a.metrics.RecordClassification(ResultTimeout)
			} else {
				a.metrics.RecordClassification(ResultFailure)
			}
			if !errors.Is(r.err, models.ErrClassification) {
				r.err = fmt.Errorf("%w: %v", models.ErrClassification, r.err)
			}
			return models.ClassificationResult{}, r.err
		}
		if math.IsNaN(r.res.Score) || r.res.Score < 0 || r.res.Score > 1 {
			a.metrics.RecordClassification(ResultInvalid)
			return models.ClassificationResult{}, fmt.Errorf("%w: score %v out of range", models.ErrClassification, r.res.Score)
		}
		a.metrics.RecordClassification(ResultSuccess)
		return r.res, nil
	}
}
