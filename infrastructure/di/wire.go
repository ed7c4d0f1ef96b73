//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/Rysh-29/Neuromap/application/ports"
	"github.com/Rysh-29/Neuromap/infrastructure/config"
	"github.com/Rysh-29/Neuromap/infrastructure/persistence"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideDomainConfig,
	ProvideKeyValueStore,
	ProvideSnapshotValidator,
	ProvideMapStorage,
	wire.Bind(new(ports.MapStorage), new(*persistence.MapStorage)),
	ProvideScheduler,
	ProvideRenderers,
	ProvideCanvasController,
	ProvideDetailPanel,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
