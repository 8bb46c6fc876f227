// Package di provides dependency injection configuration for the pokedex server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/jeduden/bmad-pokedex/internal/config"
	"github.com/jeduden/bmad-pokedex/internal/di/providers"
	"github.com/jeduden/bmad-pokedex/internal/logger"
	"github.com/jeduden/bmad-pokedex/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Cache layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)

	// Upstream
	do.Provide(injector, providers.ProvideClient)

	// Business services
	do.Provide(injector, providers.ProvidePokemonService)
	do.Provide(injector, providers.ProvideEffectivenessService)
	do.Provide(injector, providers.ProvideEvolutionService)
	do.Provide(injector, providers.ProvideBrowseService)
	do.Provide(injector, providers.ProvideSearchService)

	// Workers
	do.Provide(injector, providers.ProvideWarmer)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.CacheHandle](injector)
	_ = do.MustInvoke[*providers.ClientHandle](injector)

	_ = do.MustInvoke[*service.PokemonService](injector)
	_ = do.MustInvoke[*service.EffectivenessService](injector)
	_ = do.MustInvoke[*service.EvolutionService](injector)
	_ = do.MustInvoke[*providers.BrowseServiceHandle](injector)
	_ = do.MustInvoke[*providers.SearchServiceHandle](injector)

	_ = do.MustInvoke[*providers.WarmerHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
