// Package service composes the upstream client and the domain packages into
// the operations the HTTP API serves.
package service

import (
	"context"

	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// Upstream is the subset of *pokeapi.Client the services read through.
type Upstream interface {
	Pokemon(ctx context.Context, idOrName string) (*pokeapi.Pokemon, error)
	PokemonByID(ctx context.Context, id int) (*pokeapi.Pokemon, error)
	PokemonList(ctx context.Context, limit, offset int) (*pokeapi.ListPage, error)
	PokemonBatch(ctx context.Context, ids []int) ([]pokeapi.Pokemon, error)
	Type(ctx context.Context, name string) (*pokeapi.TypeInfo, error)
	TypeMembers(ctx context.Context, name string) ([]int, error)
	Species(ctx context.Context, id int) (*pokeapi.Species, error)
	EvolutionChain(ctx context.Context, id int) (*pokeapi.EvolutionChain, error)
}

var _ Upstream = (*pokeapi.Client)(nil)
