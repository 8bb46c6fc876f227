package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jeduden/bmad-pokedex/internal/service"
)

func (s *Server) registerPokemonRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getRandomPokemon",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/pokemon/random",
		Summary:     "Random pokemon",
		Description: "Returns the detail view of a uniformly chosen entity",
		Tags:        []string{"Pokemon"},
	}, s.handleRandomPokemon)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPokemon",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/pokemon/{idOrName}",
		Summary:     "Get pokemon",
		Description: "Returns an entity with formatted fields, derived stats and neighbour ids",
		Tags:        []string{"Pokemon"},
	}, s.handleGetPokemon)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPokemonEffectiveness",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/pokemon/{idOrName}/effectiveness",
		Summary:     "Get pokemon type effectiveness",
		Description: "Returns weaknesses, resistances and immunities for the entity's types",
		Tags:        []string{"Pokemon"},
	}, s.handleGetPokemonEffectiveness)

	huma.Register(s.api, huma.Operation{
		OperationID: "getPokemonEvolution",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/pokemon/{idOrName}/evolution",
		Summary:     "Get evolution chain",
		Description: "Returns the chain tree, its pre-order stages and whether the entity evolves",
		Tags:        []string{"Pokemon"},
	}, s.handleGetPokemonEvolution)
}

// PokemonInput identifies an entity by national dex id or name.
type PokemonInput struct {
	IDOrName string `path:"idOrName" minLength:"1" maxLength:"64" doc:"National dex id or name"`
}

// PokemonOutput contains an entity detail view.
type PokemonOutput struct {
	Body *service.PokemonDetail
}

// EffectivenessOutput contains a damage chart.
type EffectivenessOutput struct {
	Body *service.EffectivenessView
}

// EvolutionOutput contains an evolution chain view.
type EvolutionOutput struct {
	Body *service.EvolutionView
}

func (s *Server) handleRandomPokemon(ctx context.Context, _ *struct{}) (*PokemonOutput, error) {
	detail, err := s.services.Pokemon.Random(ctx)
	if err != nil {
		return nil, lookupMiss(err)
	}
	return &PokemonOutput{Body: detail}, nil
}

func (s *Server) handleGetPokemon(ctx context.Context, input *PokemonInput) (*PokemonOutput, error) {
	detail, err := s.services.Pokemon.Detail(ctx, input.IDOrName)
	if err != nil {
		return nil, lookupMiss(err)
	}
	return &PokemonOutput{Body: detail}, nil
}

func (s *Server) handleGetPokemonEffectiveness(ctx context.Context, input *PokemonInput) (*EffectivenessOutput, error) {
	view, err := s.services.Effectiveness.ForPokemon(ctx, input.IDOrName)
	if err != nil {
		return nil, lookupMiss(err)
	}
	return &EffectivenessOutput{Body: view}, nil
}

func (s *Server) handleGetPokemonEvolution(ctx context.Context, input *PokemonInput) (*EvolutionOutput, error) {
	view, err := s.services.Evolution.For(ctx, input.IDOrName)
	if err != nil {
		return nil, lookupMiss(err)
	}
	return &EvolutionOutput{Body: view}, nil
}
