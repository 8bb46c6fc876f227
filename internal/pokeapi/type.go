package pokeapi

import (
	"context"
	"net/url"
	"slices"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/errors"
)

// Type retrieves a type's damage relations and member list.
func (c *Client) Type(ctx context.Context, name string) (*TypeInfo, error) {
	ident := normalizeName(name)
	if ident == "" {
		return nil, wrapError("type", name, errors.Validation("type name is required"))
	}

	raw, err := get(ctx, c, kindType, cache.NewKey("type", ident), c.policies.Reference,
		"/type/"+url.PathEscape(ident), nil, validType)
	if err != nil {
		return nil, wrapError("type", ident, err)
	}
	return rawTypeToTypeInfo(raw), nil
}

// TypeMembers returns the ascending, de-duplicated ids of entities that
// have the type, limited to the served dex range.
func (c *Client) TypeMembers(ctx context.Context, name string) ([]int, error) {
	info, err := c.Type(ctx, name)
	if err != nil {
		return nil, err
	}
	return info.MemberIDs(), nil
}

// MemberIDs returns the ascending, de-duplicated member ids in 1..dex.TotalPokemon.
func (t *TypeInfo) MemberIDs() []int {
	ids := make([]int, 0, len(t.Members))
	for _, m := range t.Members {
		if dex.ValidID(m.ID) {
			ids = append(ids, m.ID)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func validType(t *rawType) error {
	if t.Name == "" {
		return errors.Decodef("type response missing name")
	}
	return nil
}

func rawTypeToTypeInfo(t *rawType) *TypeInfo {
	dr := t.DamageRelations
	info := &TypeInfo{
		ID:   t.ID,
		Name: t.Name,
		DamageRelations: DamageRelations{
			DoubleDamageFrom: names(dr.DoubleDamageFrom),
			DoubleDamageTo:   names(dr.DoubleDamageTo),
			HalfDamageFrom:   names(dr.HalfDamageFrom),
			HalfDamageTo:     names(dr.HalfDamageTo),
			NoDamageFrom:     names(dr.NoDamageFrom),
			NoDamageTo:       names(dr.NoDamageTo),
		},
		Members: make([]TypeMember, 0, len(t.Pokemon)),
	}
	for _, p := range t.Pokemon {
		info.Members = append(info.Members, TypeMember{
			ID:   ExtractID(p.Pokemon.URL),
			Name: p.Pokemon.Name,
			Slot: p.Slot,
		})
	}
	return info
}

func names(refs []rawNamed) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}
