package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

// Dispatcher is the downstream the pipeline forwards to.
type Dispatcher interface {
	Dispatch(ctx context.Context, s models.TradingSignal) error
}

// SignalPipeline sits between signal producers and the dispatcher. It
// validates signals, throttles each symbol to one signal per minInterval,
// and buffers signals the dispatcher rejected for later retry.
type SignalPipeline struct {
	next        Dispatcher
	metrics     domrepo.Metrics
	minInterval time.Duration
	retryEvery  time.Duration
	bufCh       chan models.TradingSignal

	mu       sync.Mutex
	lastSeen map[string]time.Time
	started  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

type PipelineOption func(*SignalPipeline)

// WithMinInterval sets the minimum spacing between signals of one symbol.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		if d >= 0 {
			p.minInterval = d
		}
	}
}

// WithBufferSize sets how many rejected signals are kept for retry.
func WithBufferSize(n int) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.bufCh = make(chan models.TradingSignal, n)
		}
	}
}

// WithRetryInterval sets the base delay between redelivery attempts.
func WithRetryInterval(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		if d > 0 {
			p.retryEvery = d
		}
	}
}

func NewSignalPipeline(next Dispatcher, metrics domrepo.Metrics, opts ...PipelineOption) *SignalPipeline {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	p := &SignalPipeline{
		next:        next,
		metrics:     metrics,
		minInterval: time.Second,
		retryEvery:  2 * time.Second,
		bufCh:       make(chan models.TradingSignal, 1000),
		lastSeen:    make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches redelivery of buffered signals.
func (p *SignalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	p.stopCh = make(chan struct{})
	p.wg.Add(1)
	go p.redeliver(ctx, p.stopCh)
}

func (p *SignalPipeline) redeliver(ctx context.Context, stop <-chan struct{}) {
	defer p.wg.Done()
	backoff := p.retryEvery
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case s := <-p.bufCh:
			if err := p.next.Dispatch(ctx, s); err != nil {
				p.metrics.RecordError("pipeline_redeliver")
				select {
				case p.bufCh <- s:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
				select {
				case <-time.After(backoff):
				case <-stop:
					return
				case <-ctx.Done():
					return
				}
				backoff = min(backoff*2, 30*time.Second)
				continue
			}
			backoff = p.retryEvery
		}
	}
}

// Stop ends redelivery; buffered signals that were never delivered are dropped.
func (p *SignalPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()
	p.wg.Wait()
	if n := len(p.bufCh); n > 0 {
		p.metrics.RecordError("pipeline_undelivered")
	}
}

// Buffered is the number of signals waiting for redelivery.
func (p *SignalPipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards s. A throttled signal is
// dropped without error. A dispatcher failure buffers s and is returned.
func (p *SignalPipeline) Process(ctx context.Context, s models.TradingSignal) error {
	start := p.now()
	if err := ValidateSignal(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(s.Symbol(), start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.next.Dispatch(ctx, s); err != nil {
		select {
		case p.bufCh <- s:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

// ValidateSignal rejects signals that could not have come from the engine.
func ValidateSignal(s models.TradingSignal) error {
	if s.Symbol() == "" {
		return fmt.Errorf("symbol empty")
	}
	switch s.Action() {
	case models.ActionBuy, models.ActionSell, models.ActionHold:
	default:
		return fmt.Errorf("unknown action %q", s.Action())
	}
	if c := s.Confidence(); math.IsNaN(c) || c < 0 || c > 0.95 {
		return fmt.Errorf("confidence %v out of range", c)
	}
	for _, v := range []float64{s.PriceTarget(), s.StopLoss()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite price level")
		}
	}
	if s.Timestamp().IsZero() {
		return fmt.Errorf("timestamp missing")
	}
	return nil
}

func (p *SignalPipeline) allow(symbol string, now time.Time) bool {
	if p.minInterval <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && now.Sub(last) < p.minInterval {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
