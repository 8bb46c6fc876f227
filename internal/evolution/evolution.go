// Package evolution resolves an entity's evolution chain and walks it.
package evolution

import (
	"context"
	"fmt"

	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// SpriteURLFormat is the static sprite location for a species id.
const SpriteURLFormat = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/%d.png"

// Source fetches the two resources needed to resolve a chain.
type Source interface {
	Species(ctx context.Context, id int) (*pokeapi.Species, error)
	EvolutionChain(ctx context.Context, id int) (*pokeapi.EvolutionChain, error)
}

// Resolve fetches the species of pokemonID and then its evolution chain.
// The chain is never requested when the species fetch fails or the species
// has no chain reference.
func Resolve(ctx context.Context, src Source, pokemonID int) (*pokeapi.EvolutionChain, error) {
	species, err := src.Species(ctx, pokemonID)
	if err != nil {
		return nil, err
	}
	if species.EvolutionChainID <= 0 {
		return nil, errors.NotFoundf("species %d has no evolution chain", pokemonID)
	}
	return src.EvolutionChain(ctx, species.EvolutionChainID)
}

// Step is a chain node together with its distance from the root.
type Step struct {
	Link  *pokeapi.ChainLink
	Depth int
}

// Flatten walks root in pre-order: each node before its children, children
// in upstream order. It uses an explicit stack, so depth is unbounded.
func Flatten(root *pokeapi.ChainLink) []Step {
	if root == nil {
		return nil
	}

	var steps []Step
	stack := []Step{{Link: root, Depth: 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		steps = append(steps, top)

		children := top.Link.EvolvesTo
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, Step{Link: &children[i], Depth: top.Depth + 1})
		}
	}
	return steps
}

// Find returns the first node whose species name equals name exactly.
func Find(root *pokeapi.ChainLink, name string) *pokeapi.ChainLink {
	for _, s := range Flatten(root) {
		if s.Link.Species.Name == name {
			return s.Link
		}
	}
	return nil
}

// DoesNotEvolve reports whether the chain is a single stage.
func DoesNotEvolve(chain *pokeapi.EvolutionChain) bool {
	return chain == nil || len(chain.Chain.EvolvesTo) == 0
}

// Stage is a flattened, display-ready chain node.
type Stage struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Depth     int    `json:"depth" doc:"Distance from the base stage"`
	ParentID  int    `json:"parent_id,omitempty" doc:"Species id this stage evolves from"`
	SpriteURL string `json:"sprite_url"`
	Current   bool   `json:"current" doc:"True for the entity the chain was requested for"`
}

// Stages flattens chain into display stages, marking currentID.
func Stages(chain *pokeapi.EvolutionChain, currentID int) []Stage {
	if chain == nil {
		return nil
	}

	parents := make(map[*pokeapi.ChainLink]int)
	steps := Flatten(&chain.Chain)
	stages := make([]Stage, 0, len(steps))
	for _, s := range steps {
		for i := range s.Link.EvolvesTo {
			parents[&s.Link.EvolvesTo[i]] = s.Link.SpeciesID
		}
		stages = append(stages, Stage{
			ID:        s.Link.SpeciesID,
			Name:      s.Link.Species.Name,
			Depth:     s.Depth,
			ParentID:  parents[s.Link],
			SpriteURL: fmt.Sprintf(SpriteURLFormat, s.Link.SpeciesID),
			Current:   s.Link.SpeciesID == currentID,
		})
	}
	return stages
}
