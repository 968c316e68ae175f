//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinSignal/pkg/config"
	"FinSignal/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// caches and model services
		ProvideRedisCache,
		ProvideBytesCache,
		ProvideClassifier,
		ProvideCapability,

		// infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// repositories
		ProvideFeatureStore,
		ProvideNewsSource,

		// use cases
		ProvideEngine,
		ProvideBatch,
		ProvideInputLoader,
		ProvideCandlesUseCase,
		ProvideHub,
		ProvideDispatcher,
		ProvidePipeline,
		ProvideScanner,
		ProvideRequestsHandler,

		// transport
		ProvideRateLimiter,
		ProvideSignalsHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
