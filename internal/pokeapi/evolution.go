package pokeapi

import (
	"context"
	"strconv"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/errors"
)

// Species retrieves the species record for an entity id.
func (c *Client) Species(ctx context.Context, id int) (*Species, error) {
	resource := strconv.Itoa(id)
	if id <= 0 {
		return nil, wrapError("species", resource, errors.Validationf("invalid species id %d", id))
	}

	raw, err := get(ctx, c, kindSpecies, cache.NewKey("species", id), c.policies.Reference,
		"/pokemon-species/"+resource, nil, validSpecies)
	if err != nil {
		return nil, wrapError("species", resource, err)
	}

	s := &Species{ID: raw.ID, Name: raw.Name}
	if raw.EvolutionChain != nil {
		s.EvolutionChainURL = raw.EvolutionChain.URL
		s.EvolutionChainID = ExtractID(raw.EvolutionChain.URL)
	}
	return s, nil
}

func validSpecies(s *rawSpecies) error {
	if s.ID <= 0 || s.Name == "" {
		return errors.Decodef("species response missing id or name")
	}
	return nil
}

// EvolutionChain retrieves an evolution chain by its id.
func (c *Client) EvolutionChain(ctx context.Context, id int) (*EvolutionChain, error) {
	resource := strconv.Itoa(id)
	if id <= 0 {
		return nil, wrapError("evolutionChain", resource, errors.Validationf("invalid evolution chain id %d", id))
	}

	raw, err := get(ctx, c, kindEvolutionChain, cache.NewKey("evolution-chain", id), c.policies.Reference,
		"/evolution-chain/"+resource, nil, validChain)
	if err != nil {
		return nil, wrapError("evolutionChain", resource, err)
	}

	return &EvolutionChain{ID: raw.ID, Chain: rawLinkToLink(&raw.Chain)}, nil
}

func validChain(ch *rawEvolutionChain) error {
	if ch.ID <= 0 || ch.Chain.Species.Name == "" {
		return errors.Decodef("evolution chain response missing id or root species")
	}
	return nil
}

func rawLinkToLink(l *rawChainLink) ChainLink {
	link := ChainLink{
		Species:   NamedRef{Name: l.Species.Name, URL: l.Species.URL},
		SpeciesID: ExtractID(l.Species.URL),
		EvolvesTo: make([]ChainLink, 0, len(l.EvolvesTo)),
	}
	for i := range l.EvolvesTo {
		link.EvolvesTo = append(link.EvolvesTo, rawLinkToLink(&l.EvolvesTo[i]))
	}
	return link
}
