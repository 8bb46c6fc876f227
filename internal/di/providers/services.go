package providers

import (
	"github.com/samber/do/v2"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/config"
	"github.com/jeduden/bmad-pokedex/internal/logger"
	"github.com/jeduden/bmad-pokedex/internal/service"
)

// ProvidePokemonService provides the detail service.
func ProvidePokemonService(i do.Injector) (*service.PokemonService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ClientHandle](i)
	return service.NewPokemonService(client.Client, nil, log.Component("pokemon").Logger), nil
}

// ProvideEffectivenessService provides the type chart service.
func ProvideEffectivenessService(i do.Injector) (*service.EffectivenessService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ClientHandle](i)
	return service.NewEffectivenessService(client.Client, log.Component("effectiveness").Logger), nil
}

// ProvideEvolutionService provides the evolution chain service.
func ProvideEvolutionService(i do.Injector) (*service.EvolutionService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ClientHandle](i)
	return service.NewEvolutionService(client.Client, log.Component("evolution").Logger), nil
}

// BrowseServiceHandle wraps the browse service with shutdown capability.
type BrowseServiceHandle struct {
	*service.BrowseService
}

// Shutdown implements do.Shutdownable.
func (h *BrowseServiceHandle) Shutdown() error {
	h.BrowseService.Close()
	return nil
}

// ProvideBrowseService provides the browse service and its session janitor.
func ProvideBrowseService(i do.Injector) (*BrowseServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ClientHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	svc := service.NewBrowseService(client.Client, service.BrowseOptions{
		PageSize:   cfg.Browse.PageSize,
		SessionTTL: cfg.Browse.SessionTTL,
		Cache:      cacheHandle.Cache,
		UnionPolicy: cache.Policy{
			Name:       cache.Reference.Name,
			StaleAfter: cfg.Cache.ReferenceStale,
			EvictAfter: cfg.Cache.Evict,
		},
		Logger: log.Component("browse").Logger,
	})

	log.Info("Browse service initialized",
		"page_size", cfg.Browse.PageSize,
		"session_ttl", cfg.Browse.SessionTTL,
	)

	return &BrowseServiceHandle{BrowseService: svc}, nil
}

// SearchServiceHandle wraps the search service with shutdown capability.
type SearchServiceHandle struct {
	*service.SearchService
}

// Shutdown implements do.Shutdownable.
func (h *SearchServiceHandle) Shutdown() error {
	return h.SearchService.Close()
}

// ProvideSearchService provides the name search service. The index is built
// on the first search.
func ProvideSearchService(i do.Injector) (*SearchServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ClientHandle](i)

	svc := service.NewSearchService(client.Client, service.SearchOptions{
		Limit:    cfg.Search.Limit,
		Debounce: cfg.Search.Debounce,
		Logger:   log.Component("search").Logger,
	})

	return &SearchServiceHandle{SearchService: svc}, nil
}
