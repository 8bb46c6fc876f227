package providers

import (
	"github.com/samber/do/v2"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/config"
	"github.com/jeduden/bmad-pokedex/internal/logger"
	"github.com/jeduden/bmad-pokedex/internal/store"
)

// StoreHandle wraps the badger store with shutdown capability. Store is nil
// when persistence is disabled.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	if h.Store == nil {
		return nil
	}
	return h.Close()
}

// ProvideStore opens the persisted cache store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Cache.Persist {
		log.Info("Cache persistence disabled")
		return &StoreHandle{}, nil
	}

	db, err := store.Open(store.Options{
		Path:    cfg.CacheDir(),
		Name:    cfg.Cache.Name,
		Version: cfg.Cache.Version,
		Logger:  log.Component("store").Logger,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Cache store opened", "path", cfg.CacheDir(), "version", db.Version())

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the response cache with shutdown capability.
type CacheHandle struct {
	*cache.Cache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideCache provides the response cache, restored from the store when
// persistence is enabled.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	opts := cache.Options{
		Logger:        log.Component("cache").Logger,
		SweepInterval: cacheSweepInterval,
	}
	if storeHandle.Store != nil {
		opts.Persister = storeHandle.Store
	}

	c := cache.New(opts)
	log.Info("Response cache ready", "entries", c.Stats().Entries)

	return &CacheHandle{Cache: c}, nil
}
