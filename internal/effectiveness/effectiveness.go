// Package effectiveness combines the damage relations of one or more types
// into the incoming damage multipliers of an entity that has all of them.
package effectiveness

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// Multiplier pairs an attacking type with its damage factor.
type Multiplier struct {
	Type       string  `json:"type" doc:"Attacking type"`
	Multiplier float64 `json:"multiplier" doc:"Damage factor, e.g. 4, 2, 0.5, 0.25"`
}

// Result partitions attacking types by effect. Types with a factor of
// exactly 1 are omitted.
type Result struct {
	// Weaknesses are sorted by factor descending, then by name.
	Weaknesses []Multiplier `json:"weaknesses"`
	// Resistances are sorted by factor ascending, then by name.
	Resistances []Multiplier `json:"resistances"`
	// Immunities are sorted by name.
	Immunities []string `json:"immunities"`
}

// Compute folds the incoming damage relations of types. Relation entries
// naming a type outside the 18 known ones are ignored. A no-damage relation
// makes the attacker an immunity regardless of any other relation.
func Compute(types []pokeapi.TypeInfo) (*Result, error) {
	if len(types) == 0 {
		return nil, errors.IncompleteData("data unavailable")
	}

	factors := make(map[string]float64, len(dex.Types))
	immune := make(map[string]bool)
	for _, t := range dex.Types {
		factors[t] = 1
	}

	for _, t := range types {
		dr := t.DamageRelations
		for _, name := range dr.DoubleDamageFrom {
			if _, ok := factors[name]; ok {
				factors[name] *= 2
			}
		}
		for _, name := range dr.HalfDamageFrom {
			if _, ok := factors[name]; ok {
				factors[name] *= 0.5
			}
		}
		for _, name := range dr.NoDamageFrom {
			if _, ok := factors[name]; ok {
				immune[name] = true
			}
		}
	}

	res := &Result{
		Weaknesses:  []Multiplier{},
		Resistances: []Multiplier{},
		Immunities:  []string{},
	}
	for _, name := range dex.Types {
		f := factors[name]
		switch {
		case immune[name]:
			res.Immunities = append(res.Immunities, name)
		case f > 1:
			res.Weaknesses = append(res.Weaknesses, Multiplier{Type: name, Multiplier: f})
		case f < 1:
			res.Resistances = append(res.Resistances, Multiplier{Type: name, Multiplier: f})
		}
	}

	slices.SortFunc(res.Weaknesses, func(a, b Multiplier) int {
		return cmp.Or(cmp.Compare(b.Multiplier, a.Multiplier), cmp.Compare(a.Type, b.Type))
	})
	slices.SortFunc(res.Resistances, func(a, b Multiplier) int {
		return cmp.Or(cmp.Compare(a.Multiplier, b.Multiplier), cmp.Compare(a.Type, b.Type))
	})
	slices.Sort(res.Immunities)

	return res, nil
}

// TypeSource fetches a type's damage relations.
type TypeSource interface {
	Type(ctx context.Context, name string) (*pokeapi.TypeInfo, error)
}

// Gather fetches every named type concurrently. A computation over a partial
// set would be wrong, so any failure yields an IncompleteData error wrapping
// the first cause.
func Gather(ctx context.Context, src TypeSource, names []string) ([]pokeapi.TypeInfo, error) {
	if len(names) == 0 {
		return nil, errors.IncompleteData("data unavailable")
	}

	out := make([]pokeapi.TypeInfo, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			info, err := src.Type(gctx, name)
			if err != nil {
				return err
			}
			out[i] = *info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, errors.CodeIncompleteData, "data unavailable")
	}
	return out, nil
}

// For gathers names and computes their combined effectiveness.
func For(ctx context.Context, src TypeSource, names []string) (*Result, error) {
	types, err := Gather(ctx, src, names)
	if err != nil {
		return nil, err
	}
	return Compute(types)
}
