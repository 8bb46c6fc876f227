package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/evolution"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// EvolutionView is an evolution chain prepared for display.
type EvolutionView struct {
	ChainID       int               `json:"chain_id"`
	Chain         pokeapi.ChainLink `json:"chain" doc:"Chain tree rooted at the base stage"`
	Stages        []evolution.Stage `json:"stages" doc:"Pre-order flattening of the tree"`
	DoesNotEvolve bool              `json:"does_not_evolve"`
}

// EvolutionService resolves evolution chains.
type EvolutionService struct {
	upstream Upstream
	logger   *slog.Logger
}

// NewEvolutionService creates the evolution service.
func NewEvolutionService(upstream Upstream, logger *slog.Logger) *EvolutionService {
	return &EvolutionService{upstream: upstream, logger: logger}
}

// ForPokemon resolves the chain that contains the entity with id.
func (s *EvolutionService) ForPokemon(ctx context.Context, id int) (*EvolutionView, error) {
	if !dex.ValidID(id) {
		return nil, errors.Validationf("pokemon id must be between 1 and %d", dex.TotalPokemon)
	}

	chain, err := evolution.Resolve(ctx, s.upstream, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("resolved evolution chain", "pokemon_id", id, "chain_id", chain.ID)
	return &EvolutionView{
		ChainID:       chain.ID,
		Chain:         chain.Chain,
		Stages:        evolution.Stages(chain, id),
		DoesNotEvolve: evolution.DoesNotEvolve(chain),
	}, nil
}

// For resolves the chain for an id or a name. Names are looked up first to
// find their id.
func (s *EvolutionService) For(ctx context.Context, idOrName string) (*EvolutionView, error) {
	idOrName = strings.ToLower(strings.TrimSpace(idOrName))
	if id, err := strconv.Atoi(idOrName); err == nil {
		return s.ForPokemon(ctx, id)
	}
	if idOrName == "" {
		return nil, errors.Validation("pokemon id or name is required")
	}

	p, err := s.upstream.Pokemon(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return s.ForPokemon(ctx, p.ID)
}
