package di

import (
	"context"
	"fmt"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	domsvc "FinSignal/internal/domain/service"
	"FinSignal/internal/handler/api"
	"FinSignal/internal/handler/ws"
	mid "FinSignal/internal/middleware"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/service/cache"
	"FinSignal/internal/service/finnhub"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/services/analytics"
	"FinSignal/internal/services/features"
	"FinSignal/internal/services/sentiment"
	"FinSignal/internal/usecase"
	pkgch "FinSignal/pkg/clickhouse"
	"FinSignal/pkg/config"
	xhttp "FinSignal/pkg/http"
	pkgkafka "FinSignal/pkg/kafka"
	"FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/server"
)

const (
	localCacheEntries = 10000
	limiterIdle       = 10 * time.Minute
)

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("service", "finsignal"), logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return domrepo.NopMetrics{}
	}
	return metrics.New(nil)
}

// ProvideRedisCache returns nil when Redis is disabled or unreachable.
func ProvideRedisCache(cfg *config.Config, l *logger.Logger) *cache.RedisCache {
	if !cfg.Redis.Enabled {
		return nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unreachable, using in-process cache", logger.String("addr", cfg.Redis.Addr), logger.Error(err))
		_ = rc.Close()
		return nil
	}
	return rc
}

// ProvideBytesCache prefers Redis and falls back to an in-process TTL cache.
func ProvideBytesCache(rc *cache.RedisCache) cache.BytesCache {
	if rc != nil {
		return rc
	}
	return cache.NewTTLCache(localCacheEntries)
}

// ProvideClassifier builds the remote sentiment classifier behind a result cache.
// With no URL configured every call fails and signals carry neutral sentiment.
func ProvideClassifier(cfg *config.Config, bc cache.BytesCache, l *logger.Logger) domsvc.Classifier {
	base := analytics.NewHTTPServiceBase(cfg.Classifier.URL, cfg.Classifier.Timeout)
	cls := analytics.NewHTTPSentimentClassifier(base, analytics.ClassifierOptions{
		URL:     cfg.Classifier.URL,
		Path:    cfg.Classifier.Path,
		Retries: cfg.Classifier.Retries,
	})
	if cfg.Classifier.URL == "" {
		l.Warn("classifier url not set, sentiment will default to neutral")
	}
	return analytics.NewCachedClassifier(cls, bc, cfg.Classifier.CacheTTL, l)
}

func ProvideCapability(cls domsvc.Classifier, l *logger.Logger) domsvc.Capability {
	return analytics.NewRuntime(cls, l.With(logger.String("component", "engine")))
}

// ProvideEngine creates the signal engine.
func ProvideEngine(cfg *config.Config, capability domsvc.Capability, m domrepo.Metrics) *usecase.Engine {
	return usecase.NewEngine(capability, features.NewPreprocessor(), m,
		[]sentiment.Option{
			sentiment.WithWorkers(cfg.Engine.ClassifyWorkers),
			sentiment.WithTimeout(cfg.Engine.ClassifyTimeout),
			sentiment.WithMaxTextLen(cfg.Engine.MaxTextLen),
		},
		usecase.WithDefaultSymbol(cfg.Engine.DefaultSymbol),
	)
}

func ProvideBatch(cfg *config.Config, eng *usecase.Engine) *usecase.Batch {
	return usecase.NewBatch(eng, cfg.Engine.BatchConcurrency, cfg.Engine.BatchTimeout)
}

// ProvideClickHouseClient returns nil when nothing needs ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *logger.Logger) (*pkgch.Client, error) {
	if !cfg.UsesClickHouse() {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", logger.String("database", cfg.ClickHouse.Database))
	return client, nil
}

// ProvideKafkaProducer returns nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

func ProvideFeatureStore(ch *pkgch.Client, l *logger.Logger) domrepo.FeatureStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHFeatureStore(ch, l)
}

// ProvideNewsSource returns nil without a Finnhub key.
func ProvideNewsSource(cfg *config.Config, bc cache.BytesCache, l *logger.Logger) domrepo.NewsSource {
	if cfg.Finnhub.APIKey == "" {
		return nil
	}
	return finnhub.NewNewsClient(finnhub.NewsConfig{
		APIKey:   cfg.Finnhub.APIKey,
		BaseURL:  cfg.Finnhub.BaseURL,
		Lookback: cfg.Finnhub.NewsLookback,
		MaxItems: cfg.Finnhub.MaxNews,
		Timeout:  cfg.Finnhub.Timeout,
		CacheTTL: 5 * time.Minute,
	}, bc, l)
}

// ProvideInputLoader returns nil without a feature store.
func ProvideInputLoader(store domrepo.FeatureStore, news domrepo.NewsSource, l *logger.Logger) *usecase.InputLoader {
	if store == nil {
		return nil
	}
	return usecase.NewInputLoader(store, news, l)
}

func ProvideCandlesUseCase(store domrepo.FeatureStore) *usecase.CandlesUseCase {
	if store == nil {
		return nil
	}
	return usecase.NewCandlesUseCase(store)
}

func ProvideHub(l *logger.Logger) *ws.Hub {
	return ws.NewHub(l.With(logger.String("component", "ws")))
}

// ProvideDispatcher wires the sinks the dispatch backend asks for.
func ProvideDispatcher(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	hub *ws.Hub,
	m domrepo.Metrics,
) (*usecase.SignalDispatcher, error) {
	var (
		pub   domrepo.SignalPublisher
		store domrepo.SignalStorage
	)
	if cfg.UsesKafka() && producer != nil {
		pub = internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
	}
	switch cfg.Dispatch.Backend {
	case usecase.BackendClickHouse, usecase.BackendBoth:
		if ch != nil {
			store = internalrepo.NewClickHouseSignalStorage(ch)
		}
	}
	return usecase.NewSignalDispatcher(pub, store, hub, m, cfg.Dispatch.Backend)
}

func ProvidePipeline(cfg *config.Config, d *usecase.SignalDispatcher, m domrepo.Metrics) *mid.SignalPipeline {
	return mid.NewSignalPipeline(d, m,
		mid.WithMinInterval(cfg.Dispatch.MinInterval),
		mid.WithBufferSize(cfg.Dispatch.Buffer),
		mid.WithRetryInterval(cfg.Dispatch.RetryInterval),
	)
}

// ProvideScanner returns nil when the scanner is disabled.
func ProvideScanner(
	cfg *config.Config,
	loader *usecase.InputLoader,
	eng *usecase.Engine,
	pipe *mid.SignalPipeline,
	m domrepo.Metrics,
	l *logger.Logger,
) (*usecase.WatchlistScanner, error) {
	if !cfg.Scanner.Enabled {
		return nil, nil
	}
	if loader == nil {
		return nil, fmt.Errorf("scanner needs clickhouse candles: set clickhouse.enabled")
	}
	return usecase.NewWatchlistScanner(usecase.ScannerConfig{
		Symbols:   cfg.Scanner.Symbols,
		Interval:  cfg.Scanner.Interval,
		MaxRPS:    cfg.Scanner.MaxRPS,
		AssetType: models.AssetType(cfg.Engine.AssetType),
		Lookback:  cfg.Engine.CandlesLookback,
		Timeframe: domrepo.NormalizeTimeframe(cfg.Engine.Timeframe),
	}, loader, eng, pipe, m, l.With(logger.String("component", "scanner"))), nil
}

// ProvideKafkaConsumer returns nil unless the request consumer is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l.With(logger.String("component", "kafka-consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRequestsHandler handles the signal requests topic. Dispatch errors
// bubble up so the consumer retries the message.
func ProvideRequestsHandler(cfg *config.Config, eng *usecase.Engine, d *usecase.SignalDispatcher, m domrepo.Metrics) *usecase.KafkaSignalRequestsHandler {
	return usecase.NewKafkaSignalRequestsHandler(cfg.Kafka.RequestsTopic, eng, d, m)
}

func ProvideSignalsHandler(
	l *logger.Logger,
	eng *usecase.Engine,
	batch *usecase.Batch,
	loader *usecase.InputLoader,
	candles *usecase.CandlesUseCase,
	d *usecase.SignalDispatcher,
	ch *pkgch.Client,
	rc *cache.RedisCache,
) *api.SignalsEchoHandler {
	health := map[string]api.HealthCheck{}
	if ch != nil {
		health["clickhouse"] = ch.Health
	}
	if rc != nil {
		health["redis"] = rc.Ping
	}
	return api.NewSignalsEchoHandler(l, api.SignalsDeps{
		Engine:     eng,
		Batch:      batch,
		Loader:     loader,
		Candles:    candles,
		Dispatcher: d,
		Health:     health,
	})
}

func ProvideRateLimiter() *ratelimit.Limiter { return ratelimit.New() }

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, limiter *ratelimit.Limiter, sh *api.SignalsEchoHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{sh, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithRateLimit(limiter, cfg.Server.RateLimitRPS, float64(cfg.Server.RateLimitBurst)),
	)
}

// ProvideApp assembles the application. When a logs topic is configured the
// logger also ships aggregated entries through the Kafka producer.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	hub *ws.Hub,
	pipe *mid.SignalPipeline,
	d *usecase.SignalDispatcher,
	scanner *usecase.WatchlistScanner,
	consumer *pkgkafka.Consumer,
	requests *usecase.KafkaSignalRequestsHandler,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	rc *cache.RedisCache,
	bc cache.BytesCache,
	limiter *ratelimit.Limiter,
) *server.App {
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 500,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
	}

	c := server.Components{
		Logger:     l,
		HTTP:       srv,
		Hub:        hub,
		Pipeline:   pipe,
		Dispatcher: d,
		Scanner:    scanner,
		Consumer:   consumer,
		Requests:   requests,
		ClickHouse: ch,
	}
	c.Maintenance = append(c.Maintenance, func() { limiter.Prune(limiterIdle) })
	if local, ok := bc.(*cache.TTLCache); ok {
		c.Maintenance = append(c.Maintenance, func() { local.Sweep() })
	}
	if rc != nil {
		c.Closers = append(c.Closers, rc.Close)
	}
	// the dispatcher only closes the producer when it owns a publisher
	if producer != nil && !cfg.UsesKafka() {
		c.Closers = append(c.Closers, producer.Close)
	}
	return server.New(cfg, c)
}
