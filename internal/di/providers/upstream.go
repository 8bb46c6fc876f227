package providers

import (
	"github.com/samber/do/v2"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/config"
	"github.com/jeduden/bmad-pokedex/internal/logger"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// ClientHandle wraps the PokeAPI client with shutdown capability.
type ClientHandle struct {
	*pokeapi.Client
}

// Shutdown implements do.Shutdownable.
func (h *ClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideClient provides the cached, rate-limited PokeAPI client.
func ProvideClient(i do.Injector) (*ClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)

	client := pokeapi.New(pokeapi.Options{
		BaseURL:          cfg.PokeAPI.BaseURL,
		Timeout:          cfg.PokeAPI.Timeout,
		RequestsPerSec:   cfg.PokeAPI.RequestsPerSec,
		Burst:            cfg.PokeAPI.Burst,
		BatchConcurrency: cfg.PokeAPI.BatchConcurrency,
		Cache:            cacheHandle.Cache,
		Policies: pokeapi.Policies{
			Volatile: cache.Policy{
				Name:       cache.Volatile.Name,
				StaleAfter: cfg.Cache.VolatileStale,
				EvictAfter: cfg.Cache.Evict,
			},
			Reference: cache.Policy{
				Name:       cache.Reference.Name,
				StaleAfter: cfg.Cache.ReferenceStale,
				EvictAfter: cfg.Cache.Evict,
			},
		},
		Logger: log.Component("pokeapi").Logger,
	})

	log.Info("PokeAPI client initialized",
		"base_url", cfg.PokeAPI.BaseURL,
		"rps", cfg.PokeAPI.RequestsPerSec,
		"burst", cfg.PokeAPI.Burst,
	)

	return &ClientHandle{Client: client}, nil
}
