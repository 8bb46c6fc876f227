package api

import (
	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Pokemon       *service.PokemonService
	Effectiveness *service.EffectivenessService
	Evolution     *service.EvolutionService
	Browse        *service.BrowseService
	Search        *service.SearchService
	Cache         *cache.Cache // optional, reported by /health
}
