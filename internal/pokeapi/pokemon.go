package pokeapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/errors"
)

// Pokemon retrieves a single entity by national dex id or name.
func (c *Client) Pokemon(ctx context.Context, idOrName string) (*Pokemon, error) {
	ident := normalizeName(idOrName)
	if ident == "" {
		return nil, wrapError("pokemon", idOrName, errors.Validation("pokemon id or name is required"))
	}

	raw, err := get(ctx, c, kindPokemon, cache.NewKey("pokemon", ident), c.policies.Volatile,
		"/pokemon/"+url.PathEscape(ident), nil, validPokemon)
	if err != nil {
		return nil, wrapError("pokemon", ident, err)
	}
	return rawPokemonToPokemon(raw), nil
}

// PokemonByID is Pokemon for a numeric id.
func (c *Client) PokemonByID(ctx context.Context, id int) (*Pokemon, error) {
	return c.Pokemon(ctx, strconv.Itoa(id))
}

func validPokemon(p *rawPokemon) error {
	if p.ID <= 0 || p.Name == "" {
		return errors.Decodef("pokemon response missing id or name")
	}
	return nil
}

func rawPokemonToPokemon(p *rawPokemon) *Pokemon {
	out := &Pokemon{
		ID:     p.ID,
		Name:   p.Name,
		Height: p.Height,
		Weight: p.Weight,
		Types:  make([]TypeSlot, 0, len(p.Types)),
		Stats:  make([]Stat, 0, len(p.Stats)),
		Sprites: Sprites{
			FrontDefault:   deref(p.Sprites.FrontDefault),
			FrontShiny:     deref(p.Sprites.FrontShiny),
			BackDefault:    deref(p.Sprites.BackDefault),
			BackShiny:      deref(p.Sprites.BackShiny),
			ArtworkDefault: deref(p.Sprites.Other.OfficialArtwork.FrontDefault),
			ArtworkShiny:   deref(p.Sprites.Other.OfficialArtwork.FrontShiny),
		},
	}
	for _, t := range p.Types {
		out.Types = append(out.Types, TypeSlot{Slot: t.Slot, Name: t.Type.Name})
	}
	for _, s := range p.Stats {
		out.Stats = append(out.Stats, Stat{Name: s.Stat.Name, BaseStat: s.BaseStat, Effort: s.Effort})
	}
	return out
}

// PokemonList retrieves one page of the national dex listing.
func (c *Client) PokemonList(ctx context.Context, limit, offset int) (*ListPage, error) {
	if limit <= 0 || offset < 0 {
		return nil, wrapError("list", "", errors.Validationf("invalid page limit=%d offset=%d", limit, offset))
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	raw, err := get(ctx, c, kindPokemonList, cache.NewKey("pokemon-list", limit, offset), c.policies.Volatile,
		"/pokemon", query, validList)
	if err != nil {
		return nil, wrapError("list", "", err)
	}

	page := &ListPage{
		Count:      raw.Count,
		Items:      make([]ListItem, 0, len(raw.Results)),
		NextOffset: offsetOf(raw.Next),
		PrevOffset: offsetOf(raw.Previous),
	}
	for _, r := range raw.Results {
		page.Items = append(page.Items, ListItem{ID: ExtractID(r.URL), Name: r.Name, URL: r.URL})
	}
	return page, nil
}

func validList(l *rawList) error {
	for _, r := range l.Results {
		if r.Name == "" {
			return errors.Decodef("list entry missing name")
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
