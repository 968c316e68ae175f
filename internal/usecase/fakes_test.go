package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
)

type fakeStore struct {
	candles map[string][]models.Candle
	err     error
}

func (f *fakeStore) GetCandles(_ context.Context, symbol string, from, to time.Time, _ domrepo.Timeframe) ([]models.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Candle
	for _, c := range f.candles[symbol] {
		if !c.Bucket.Before(from) && !c.Bucket.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLatestNCandles(_ context.Context, symbol string, n int, _ domrepo.Timeframe) ([]models.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	cs := f.candles[symbol]
	if len(cs) > n {
		cs = cs[len(cs)-n:]
	}
	return cs, nil
}

type fakeNews struct {
	texts []string
	err   error
}

func (f *fakeNews) RecentNews(context.Context, string) ([]string, error) { return f.texts, f.err }

func candleSeries(symbol string, n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = models.Candle{
			Bucket: fixedNow.AddDate(0, 0, i-n),
			Symbol: symbol,
			Open:   c - 0.5, High: c + 1, Low: c - 1, Close: c,
			Volume: 1e6,
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	got    []models.TradingSignal
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, s models.TradingSignal) error {
	return p.PublishBatch(ctx, []models.TradingSignal{s})
}

func (p *recordingPublisher) PublishBatch(_ context.Context, ss []models.TradingSignal) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.got = append(p.got, ss...)
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) Close() error { p.closed = true; return nil }

type recordingStorage struct {
	recordingPublisher
}

func (s *recordingStorage) Store(ctx context.Context, sig models.TradingSignal) error {
	return s.PublishBatch(ctx, []models.TradingSignal{sig})
}

func (s *recordingStorage) StoreBatch(ctx context.Context, ss []models.TradingSignal) error {
	return s.PublishBatch(ctx, ss)
}

func (s *recordingStorage) Health(context.Context) error { return nil }

type recordingHub struct {
	mu  sync.Mutex
	got []models.TradingSignal
}

func (h *recordingHub) Broadcast(s models.TradingSignal) {
	h.mu.Lock()
	h.got = append(h.got, s)
	h.mu.Unlock()
}

type dispatchFunc func(context.Context, models.TradingSignal) error

func (f dispatchFunc) Dispatch(ctx context.Context, s models.TradingSignal) error { return f(ctx, s) }
func (f dispatchFunc) Process(ctx context.Context, s models.TradingSignal) error  { return f(ctx, s) }

var errDown = errors.New("downstream unavailable")

func sampleSignal(symbol string) models.TradingSignal {
	return models.NewTradingSignal(models.TradingSignalParams{
		Symbol:      symbol,
		AssetType:   models.AssetStock,
		Action:      models.ActionBuy,
		Confidence:  0.75,
		PriceTarget: 110,
		StopLoss:    95,
		Timestamp:   fixedNow,
		Rationale:   "test",
	})
}
