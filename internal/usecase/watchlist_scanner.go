package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/pkg/logger"
)

// SignalSink accepts generated signals; the dispatch pipeline satisfies it.
type SignalSink interface {
	Process(ctx context.Context, s models.TradingSignal) error
}

type ScannerConfig struct {
	Symbols   []string
	Interval  time.Duration
	MaxRPS    float64
	AssetType models.AssetType
	Lookback  int
	Timeframe domrepo.Timeframe
}

// WatchlistScanner periodically scores every watched symbol and pushes the
// signals into the sink.
type WatchlistScanner struct {
	cfg     ScannerConfig
	loader  *InputLoader
	gen     SignalGenerator
	sink    SignalSink
	limiter *ratelimit.Limiter
	metrics domrepo.Metrics
	log     *logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastRun time.Time
}

func NewWatchlistScanner(cfg ScannerConfig, loader *InputLoader, gen SignalGenerator, sink SignalSink, metrics domrepo.Metrics, log *logger.Logger) *WatchlistScanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.MaxRPS <= 0 {
		cfg.MaxRPS = 5
	}
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &WatchlistScanner{
		cfg:     cfg,
		loader:  loader,
		gen:     gen,
		sink:    sink,
		limiter: ratelimit.New(),
		metrics: metrics,
		log:     log.With(logger.String("component", "scanner")),
	}
}

// Start runs a scan immediately and then on every interval.
func (s *WatchlistScanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("scanner already started")
	}
	if len(s.cfg.Symbols) == 0 {
		return errors.New("scanner has no symbols")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
	s.log.Info("scanner started", logger.Strings("symbols", s.cfg.Symbols), logger.Duration("interval", s.cfg.Interval))
	return nil
}

func (s *WatchlistScanner) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		s.ScanOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ScanOnce scores every symbol once and returns how many signals went out.
func (s *WatchlistScanner) ScanOnce(ctx context.Context) int {
	start := time.Now()
	sent := 0
	burst := math.Max(1, s.cfg.MaxRPS)
	for _, symbol := range s.cfg.Symbols {
		if err := s.limiter.Wait(ctx, "scanner", burst, s.cfg.MaxRPS); err != nil {
			break
		}
		if s.scan(ctx, symbol) {
			sent++
		}
	}
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()
	s.metrics.RecordLatency("scan", time.Since(start).Seconds())
	s.log.Debug("scan finished", logger.Int("symbols", len(s.cfg.Symbols)), logger.Int("signals", sent))
	return sent
}

func (s *WatchlistScanner) scan(ctx context.Context, symbol string) bool {
	in, err := s.loader.Load(ctx, LoadInputParams{
		Symbol:    symbol,
		AssetType: s.cfg.AssetType,
		N:         s.cfg.Lookback,
		Timeframe: s.cfg.Timeframe,
	})
	if err != nil {
		s.metrics.RecordError("scan_load")
		s.log.Warn("scan input unavailable", logger.String("symbol", symbol), logger.Error(err))
		return false
	}
	signals := s.gen.GenerateTradingSignals(ctx, in)
	if len(signals) == 0 {
		return false
	}
	if err := s.sink.Process(ctx, signals[0]); err != nil {
		s.metrics.RecordError("scan_dispatch")
		s.log.Warn("scan dispatch failed", logger.String("symbol", symbol), logger.Error(err))
		return false
	}
	return true
}

// LastRun is when the last full scan finished.
func (s *WatchlistScanner) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Stop cancels the loop and waits for the running scan to end.
func (s *WatchlistScanner) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
