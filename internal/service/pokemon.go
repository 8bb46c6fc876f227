package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// StatView is a base stat prepared for display.
type StatView struct {
	Name    string  `json:"name" doc:"Upstream stat name"`
	Label   string  `json:"label" doc:"Display label, e.g. Sp. Atk"`
	Value   int     `json:"value"`
	Band    string  `json:"band" enum:"low,medium,high"`
	Percent float64 `json:"percent" doc:"Value relative to the stat scale maximum"`
}

// PokemonDetail is an entity together with its derived display fields.
type PokemonDetail struct {
	Pokemon     *pokeapi.Pokemon `json:"pokemon"`
	Number      string           `json:"number" doc:"Formatted dex number, e.g. #025"`
	DisplayName string           `json:"display_name"`
	Height      string           `json:"height" doc:"Height in metres"`
	Weight      string           `json:"weight" doc:"Weight in kilograms"`
	Types       []string         `json:"types"`
	Image       string           `json:"image,omitempty"`
	Stats       []StatView       `json:"stats"`
	StatTotal   int              `json:"stat_total"`
	PreviousID  int              `json:"previous_id"`
	NextID      int              `json:"next_id"`
}

// PokemonService serves single-entity views.
type PokemonService struct {
	upstream Upstream
	logger   *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewPokemonService creates the detail service. A nil r uses the global source.
func NewPokemonService(upstream Upstream, r *rand.Rand, logger *slog.Logger) *PokemonService {
	return &PokemonService{upstream: upstream, rand: r, logger: logger}
}

// Detail loads an entity by id or name and derives its display fields.
func (s *PokemonService) Detail(ctx context.Context, idOrName string) (*PokemonDetail, error) {
	idOrName = strings.ToLower(strings.TrimSpace(idOrName))
	if idOrName == "" {
		return nil, errors.Validation("pokemon id or name is required")
	}

	p, err := s.upstream.Pokemon(ctx, idOrName)
	if err != nil {
		return nil, err
	}
	return BuildDetail(p), nil
}

// Random loads a uniformly chosen entity.
func (s *PokemonService) Random(ctx context.Context) (*PokemonDetail, error) {
	s.randMu.Lock()
	id := dex.RandomID(s.rand)
	s.randMu.Unlock()

	s.logger.Debug("random pokemon", "id", id)

	p, err := s.upstream.PokemonByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildDetail(p), nil
}

// BuildDetail derives the display fields of p.
func BuildDetail(p *pokeapi.Pokemon) *PokemonDetail {
	stats := make([]StatView, len(p.Stats))
	values := make([]int, len(p.Stats))
	for i, st := range p.Stats {
		values[i] = st.BaseStat
		stats[i] = StatView{
			Name:    st.Name,
			Label:   dex.StatDisplayName(st.Name),
			Value:   st.BaseStat,
			Band:    dex.StatBand(st.BaseStat),
			Percent: dex.StatPercent(st.BaseStat),
		}
	}

	return &PokemonDetail{
		Pokemon:     p,
		Number:      dex.FormatNumber(p.ID),
		DisplayName: dex.DisplayName(p.Name),
		Height:      dex.FormatHeight(p.Height),
		Weight:      dex.FormatWeight(p.Weight),
		Types:       p.TypeNames(),
		Image:       p.Sprites.Image(),
		Stats:       stats,
		StatTotal:   dex.StatTotal(values...),
		PreviousID:  dex.PreviousID(p.ID),
		NextID:      dex.NextID(p.ID),
	}
}
