package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/effectiveness"
	"github.com/jeduden/bmad-pokedex/internal/errors"
)

// MaxTypes is the largest type combination an entity can have.
const MaxTypes = 2

// EffectivenessView is the damage chart for a type combination.
type EffectivenessView struct {
	PokemonID int      `json:"pokemon_id,omitempty"`
	Name      string   `json:"name,omitempty"`
	Types     []string `json:"types"`
	effectiveness.Result
}

// EffectivenessService computes incoming damage multipliers.
type EffectivenessService struct {
	upstream Upstream
	logger   *slog.Logger
}

// NewEffectivenessService creates the effectiveness service.
func NewEffectivenessService(upstream Upstream, logger *slog.Logger) *EffectivenessService {
	return &EffectivenessService{upstream: upstream, logger: logger}
}

// ForPokemon computes the chart for an entity's own types.
func (s *EffectivenessService) ForPokemon(ctx context.Context, idOrName string) (*EffectivenessView, error) {
	idOrName = strings.ToLower(strings.TrimSpace(idOrName))
	if idOrName == "" {
		return nil, errors.Validation("pokemon id or name is required")
	}

	p, err := s.upstream.Pokemon(ctx, idOrName)
	if err != nil {
		return nil, err
	}

	types := p.TypeNames()
	res, err := effectiveness.For(ctx, s.upstream, types)
	if err != nil {
		s.logger.Warn("effectiveness unavailable", "pokemon", p.Name, "types", types, "error", err)
		return nil, err
	}
	return &EffectivenessView{PokemonID: p.ID, Name: p.Name, Types: types, Result: *res}, nil
}

// ForTypes computes the chart for an explicit type combination.
func (s *EffectivenessService) ForTypes(ctx context.Context, names []string) (*EffectivenessView, error) {
	types, err := ParseTypes(names)
	if err != nil {
		return nil, err
	}

	res, err := effectiveness.For(ctx, s.upstream, types)
	if err != nil {
		s.logger.Warn("effectiveness unavailable", "types", types, "error", err)
		return nil, err
	}
	return &EffectivenessView{Types: types, Result: *res}, nil
}

// ParseTypes normalises a list of type names, accepting comma-separated
// entries. It rejects an empty list, unknown names and more than MaxTypes.
func ParseTypes(names []string) ([]string, error) {
	var types, unknown []string
	for _, raw := range names {
		for name := range strings.SplitSeq(raw, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			switch {
			case name == "":
			case dex.IsType(name):
				if !slices.Contains(types, name) {
					types = append(types, name)
				}
			default:
				unknown = append(unknown, name)
			}
		}
	}

	if len(unknown) > 0 {
		return nil, errors.ValidationWithDetails("unknown type", map[string]any{"unknown": unknown})
	}
	if len(types) == 0 {
		return nil, errors.Validation("at least one type is required")
	}
	if len(types) > MaxTypes {
		return nil, errors.Validationf("at most %d types may be combined", MaxTypes)
	}
	return types, nil
}
