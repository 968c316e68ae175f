package usecase

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/services/features"
	"FinSignal/internal/services/sentiment"
	"FinSignal/pkg/logger"
)

const unknownSymbol = "UNKNOWN"

// Engine turns one symbol's candles and news into at most one signal.
type Engine struct {
	cap      domsvc.Capability
	pre      *features.Preprocessor
	analyzer *sentiment.Analyzer
	metrics  domrepo.Metrics
	clock    func() time.Time
	fallback string
}

type EngineOption func(*Engine)

// WithClock replaces time.Now for signal timestamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) { e.clock = clock }
}

// WithDefaultSymbol names signals whose input carries no symbol.
func WithDefaultSymbol(symbol string) EngineOption {
	return func(e *Engine) {
		if symbol != "" {
			e.fallback = symbol
		}
	}
}

func NewEngine(cap domsvc.Capability, pre *features.Preprocessor, metrics domrepo.Metrics, analyzerOpts []sentiment.Option, opts ...EngineOption) *Engine {
	if pre == nil {
		pre = features.NewPreprocessor()
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	analyzerOpts = append([]sentiment.Option{sentiment.WithMetrics(metrics)}, analyzerOpts...)
	e := &Engine{
		cap:      cap,
		pre:      pre,
		analyzer: sentiment.NewAnalyzer(cap, analyzerOpts...),
		metrics:  metrics,
		clock:    time.Now,
		fallback: unknownSymbol,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateTradingSignals returns zero or one signal and never panics.
// Every failure is logged through the capability.
func (e *Engine) GenerateTradingSignals(ctx context.Context, in models.SignalInput) (out []models.TradingSignal) {
	start := time.Now()
	symbol := e.symbolOf(in)
	log := []logger.Field{logger.String("symbol", symbol)}

	defer func() {
		if r := recover(); r != nil {
			e.cap.Error("signal generation panicked",
				append(log, logger.Any("panic", r), logger.String("stack", string(debug.Stack())))...)
			e.metrics.RecordError("panic")
			out = []models.TradingSignal{}
		}
		e.metrics.RecordLatency("generate", time.Since(start).Seconds())
	}()

	outcome := e.pre.Preprocess(in.Frame)
	e.metrics.RecordOutcome(outcome.Kind)
	switch outcome.Kind {
	case models.OutcomeFailed:
		e.cap.Error("preprocessing failed", append(log, logger.Error(outcome.Err))...)
		if models.IsValidation(outcome.Err) {
			e.metrics.RecordError("validation")
		} else {
			e.metrics.RecordError("preprocess")
		}
		return []models.TradingSignal{}
	case models.OutcomeDegraded:
		e.cap.Warn("using degraded features", append(log, logger.String("reason", outcome.Reason))...)
	}
	if !outcome.Usable() {
		e.cap.Error("preprocessing produced no rows", log...)
		return []models.TradingSignal{}
	}

	var sent *models.SentimentResult
	if len(in.News) > 0 {
		s := e.analyzer.Analyze(ctx, in.News)
		sent = &s
	}

	fusion := Fuse(outcome.Rows, sent)
	signal := models.NewTradingSignal(models.TradingSignalParams{
		Symbol:      symbol,
		AssetType:   assetTypeOrDefault(in.AssetType),
		Action:      fusion.Action,
		Confidence:  fusion.Confidence,
		PriceTarget: PriceTarget(outcome.Rows),
		StopLoss:    StopLoss(outcome.Rows, fusion.Action),
		Timestamp:   e.clock(),
		Rationale:   fusion.Rationale,
	})

	e.metrics.RecordSignal(symbol, signal.AssetType(), signal.Action())
	e.cap.Info("signal generated", append(log,
		logger.String("action", string(signal.Action())),
		logger.Float64("confidence", signal.Confidence()),
		logger.String("features", string(outcome.Kind)),
		logger.Int("rows", len(outcome.Rows)),
		logger.Int("news", len(in.News)),
	)...)
	return []models.TradingSignal{signal}
}

// Generate is GenerateTradingSignals with an error for callers that need one.
func (e *Engine) Generate(ctx context.Context, in models.SignalInput) (models.TradingSignal, error) {
	signals := e.GenerateTradingSignals(ctx, in)
	if len(signals) == 0 {
		return models.TradingSignal{}, fmt.Errorf("%w for %s", ErrNoSignal, e.symbolOf(in))
	}
	return signals[0], nil
}

// symbolOf is the symbol a signal for in is stamped with.
func (e *Engine) symbolOf(in models.SignalInput) string {
	if in.Symbol == "" {
		return e.fallback
	}
	return in.Symbol
}

func assetTypeOrDefault(at models.AssetType) models.AssetType {
	if at == "" {
		return models.AssetStock
	}
	return at
}
