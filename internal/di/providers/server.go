package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/jeduden/bmad-pokedex/internal/api"
	"github.com/jeduden/bmad-pokedex/internal/config"
	"github.com/jeduden/bmad-pokedex/internal/logger"
	"github.com/jeduden/bmad-pokedex/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	browseHandle := do.MustInvoke[*BrowseServiceHandle](i)
	searchHandle := do.MustInvoke[*SearchServiceHandle](i)

	services := &api.Services{
		Pokemon:       do.MustInvoke[*service.PokemonService](i),
		Effectiveness: do.MustInvoke[*service.EffectivenessService](i),
		Evolution:     do.MustInvoke[*service.EvolutionService](i),
		Browse:        browseHandle.BrowseService,
		Search:        searchHandle.SearchService,
		Cache:         cacheHandle.Cache,
	}

	handler := api.NewServer(services, api.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestsPerSec: cfg.Server.RateLimit,
		Burst:          cfg.Server.RateBurst,
	}, log.Component("api").Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
