package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	"FinSignal/pkg/logger"
)

// InputLoader assembles engine input for a symbol from stored candles and
// the news source.
type InputLoader struct {
	store   domrepo.FeatureStore
	news    domrepo.NewsSource
	log     *logger.Logger
	timeout time.Duration
}

// NewInputLoader accepts a nil news source; inputs then carry no news.
func NewInputLoader(store domrepo.FeatureStore, news domrepo.NewsSource, log *logger.Logger) *InputLoader {
	if log == nil {
		log = logger.Nop()
	}
	return &InputLoader{store: store, news: news, log: log, timeout: 10 * time.Second}
}

type LoadInputParams struct {
	Symbol    string
	AssetType models.AssetType
	N         int
	Timeframe domrepo.Timeframe
	SkipNews  bool
}

// Load fetches candles and news concurrently. Missing candles are an error.
// News failures are logged and the input goes out without news.
func (l *InputLoader) Load(ctx context.Context, p LoadInputParams) (models.SignalInput, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return models.SignalInput{}, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 200
	}
	if !domrepo.IsValidTimeframe(p.Timeframe) {
		p.Timeframe = domrepo.DefaultTimeframe()
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := l.store.GetLatestNCandles(ctx, symbol, p.N, p.Timeframe)
		ch <- item{"candles", v, err}
	}()
	if l.news != nil && !p.SkipNews {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.news.RecentNews(ctx, symbol)
			ch <- item{"news", v, err}
		}()
	}
	go func() { wg.Wait(); close(ch) }()

	in := models.SignalInput{Symbol: symbol, AssetType: p.AssetType}
	var candlesErr error
	for it := range ch {
		switch it.name {
		case "candles":
			if it.err != nil {
				candlesErr = it.err
				continue
			}
			cs := it.val.([]models.Candle)
			in.Frame = models.FrameFromCandles(cs)
		case "news":
			if it.err != nil {
				l.log.Warn("news unavailable", logger.String("symbol", symbol), logger.Error(it.err))
				continue
			}
			in.News = it.val.([]string)
		}
	}
	if candlesErr != nil {
		return models.SignalInput{}, fmt.Errorf("load candles for %s: %w", symbol, candlesErr)
	}
	if in.Frame.Len() == 0 {
		return models.SignalInput{}, fmt.Errorf("no candles for %s %s", symbol, p.Timeframe)
	}
	return in, nil
}
