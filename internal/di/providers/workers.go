package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/jeduden/bmad-pokedex/internal/config"
	"github.com/jeduden/bmad-pokedex/internal/logger"
	"github.com/jeduden/bmad-pokedex/internal/service"
)

// WarmerHandle runs the startup cache warm-up in the background.
type WarmerHandle struct {
	*service.Warmer
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *WarmerHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideWarmer starts prefetching every type table unless disabled.
func ProvideWarmer(i do.Injector) (*WarmerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*ClientHandle](i)

	warmer := service.NewWarmer(client.Client, cfg.PokeAPI.BatchConcurrency, log.Component("warmer").Logger)

	ctx, cancel := context.WithCancel(context.Background())
	h := &WarmerHandle{Warmer: warmer, cancel: cancel, done: make(chan struct{})}

	if !cfg.Cache.WarmTypes {
		log.Info("Type warm-up disabled by configuration")
		close(h.done)
		return h, nil
	}

	go func() {
		defer close(h.done)
		warmer.WarmTypes(ctx)
	}()

	return h, nil
}
