//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"agentdev-backend/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideTracer,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideCollector,
	ProvideStoreClient,
	ProvideProjectRepository,
	ProvideRepository,
	ProvideHealthChecker,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideClock,
	ProvideAccessService,
	ProvideCommandHandlers,
	ProvideQueryHandlers,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideTokenService,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
