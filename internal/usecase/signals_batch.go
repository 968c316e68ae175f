package usecase

import (
	"context"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
)

// SignalGenerator is the single-symbol entry point the batch fans out to.
type SignalGenerator interface {
	GenerateTradingSignals(ctx context.Context, in models.SignalInput) []models.TradingSignal
}

// Batch runs the engine for many symbols in parallel.
type Batch struct {
	gen         SignalGenerator
	concurrency int
	timeout     time.Duration
}

func NewBatch(gen SignalGenerator, concurrency int, timeout time.Duration) *Batch {
	if concurrency <= 0 {
		concurrency = 8
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Batch{gen: gen, concurrency: concurrency, timeout: timeout}
}

// Generate returns one entry per input symbol. Symbols without a signal get
// an empty list and a reason in Errors; they never affect other symbols.
func (b *Batch) Generate(ctx context.Context, inputs []models.SignalInput) *models.BatchSignals {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res := &models.BatchSignals{
		Signals: make(map[string][]models.TradingSignal, len(inputs)),
		Errors:  map[string]string{},
	}

	type item struct {
		symbol  string
		signals []models.TradingSignal
	}
	ch := make(chan item, len(inputs))
	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	pending := make(map[string]int, len(inputs))
	for _, in := range inputs {
		symbol := in.Symbol
		if symbol == "" {
			symbol = unknownSymbol
		}
		pending[symbol]++
		res.Signals[symbol] = []models.TradingSignal{}

		wg.Add(1)
		go func(in models.SignalInput, symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			ch <- item{symbol: symbol, signals: b.gen.GenerateTradingSignals(ctx, in)}
		}(in, symbol)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

collect:
	for remaining := len(inputs); remaining > 0; {
		select {
		case it := <-ch:
			remaining--
			pending[it.symbol]--
			res.Signals[it.symbol] = append(res.Signals[it.symbol], it.signals...)
		case <-done:
			// workers that gave up on ctx never send; drain what was sent
			for {
				select {
				case it := <-ch:
					pending[it.symbol]--
					res.Signals[it.symbol] = append(res.Signals[it.symbol], it.signals...)
				default:
					break collect
				}
			}
		case <-ctx.Done():
			break collect
		}
	}

	for symbol, n := range pending {
		switch {
		case n > 0:
			res.Errors[symbol] = "timed out"
		case len(res.Signals[symbol]) == 0:
			res.Errors[symbol] = ErrNoSignal.Error()
		}
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res
}
