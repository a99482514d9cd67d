//go:build wireinject
// +build wireinject

package di

import (
	"MarketBrief/internal/usecase"
	"MarketBrief/pkg/config"
	"MarketBrief/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Market data
		ProvideRedisCache,
		ProvideCache,
		ProvideFinnhubStream,
		ProvideCoordinator,
		ProvideRanker,

		// Sinks
		ProvideKafkaProducer,
		ProvideBriefStore,
		ProvideBriefSinks,

		// Use cases
		ProvideBriefUseCase,

		// Transport
		ProvideLimiter,
		ProvideBriefHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeBriefUseCase wires the brief pipeline without the HTTP layer.
func InitializeBriefUseCase(cfg *config.Config) (*usecase.BriefUseCase, func(), error) {
	wire.Build(
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideRedisCache,
		ProvideCache,
		ProvideFinnhubStream,
		ProvideCoordinator,
		ProvideRanker,
		ProvideBriefStore,
		ProvideBriefSinks,
		ProvideBriefPipeline,
	)
	return nil, nil, nil
}
