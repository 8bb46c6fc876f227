package evolution

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

func link(id int, name string, children ...pokeapi.ChainLink) pokeapi.ChainLink {
	return pokeapi.ChainLink{
		Species:   pokeapi.NamedRef{Name: name},
		SpeciesID: id,
		EvolvesTo: children,
	}
}

// eevee branches into several leaves.
var eeveeChain = &pokeapi.EvolutionChain{
	ID: 67,
	Chain: link(133, "eevee",
		link(134, "vaporeon"),
		link(135, "jolteon"),
		link(136, "flareon"),
	),
}

var bulbasaurChain = &pokeapi.EvolutionChain{
	ID:    1,
	Chain: link(1, "bulbasaur", link(2, "ivysaur", link(3, "venusaur"))),
}

type fakeSource struct {
	species    map[int]*pokeapi.Species
	speciesErr error
	chains     map[int]*pokeapi.EvolutionChain
	chainCalls int
}

func (f *fakeSource) Species(_ context.Context, id int) (*pokeapi.Species, error) {
	if f.speciesErr != nil {
		return nil, f.speciesErr
	}
	s, ok := f.species[id]
	if !ok {
		return nil, errors.NotFoundf("species %d", id)
	}
	return s, nil
}

func (f *fakeSource) EvolutionChain(_ context.Context, id int) (*pokeapi.EvolutionChain, error) {
	f.chainCalls++
	c, ok := f.chains[id]
	if !ok {
		return nil, errors.NotFoundf("chain %d", id)
	}
	return c, nil
}

func TestResolve(t *testing.T) {
	src := &fakeSource{
		species: map[int]*pokeapi.Species{2: {ID: 2, Name: "ivysaur", EvolutionChainID: 1}},
		chains:  map[int]*pokeapi.EvolutionChain{1: bulbasaurChain},
	}

	chain, err := Resolve(context.Background(), src, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, chain.ID)
}

func TestResolve_SpeciesFailureSkipsChain(t *testing.T) {
	src := &fakeSource{speciesErr: errors.Transport(500, "500 Internal Server Error")}

	_, err := Resolve(context.Background(), src, 2)
	assert.ErrorIs(t, err, errors.ErrTransport)
	assert.Zero(t, src.chainCalls)
}

func TestResolve_NoChainReference(t *testing.T) {
	src := &fakeSource{species: map[int]*pokeapi.Species{999: {ID: 999, Name: "lonely"}}}

	_, err := Resolve(context.Background(), src, 999)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Zero(t, src.chainCalls)
}

func TestFlatten_PreOrder(t *testing.T) {
	root := link(1, "a",
		link(2, "b", link(4, "d")),
		link(3, "c"),
	)

	var names []string
	var depths []int
	for _, s := range Flatten(&root) {
		names = append(names, s.Link.Species.Name)
		depths = append(depths, s.Depth)
	}

	assert.Equal(t, []string{"a", "b", "d", "c"}, names)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)
	assert.Nil(t, Flatten(nil))
}

func TestFlatten_DeepChain(t *testing.T) {
	root := link(1, "root")
	cur := &root
	for i := 2; i <= 10000; i++ {
		cur.EvolvesTo = []pokeapi.ChainLink{link(i, "n")}
		cur = &cur.EvolvesTo[0]
	}

	steps := Flatten(&root)
	require.Len(t, steps, 10000)
	assert.Equal(t, 9999, steps[9999].Depth)
}

func TestFind(t *testing.T) {
	got := Find(&eeveeChain.Chain, "jolteon")
	require.NotNil(t, got)
	assert.Equal(t, 135, got.SpeciesID)

	assert.Nil(t, Find(&eeveeChain.Chain, "Jolteon"), "exact match only")
}

func TestDoesNotEvolve(t *testing.T) {
	assert.False(t, DoesNotEvolve(bulbasaurChain))
	assert.True(t, DoesNotEvolve(&pokeapi.EvolutionChain{ID: 9, Chain: link(132, "ditto")}))
}

func TestStages(t *testing.T) {
	stages := Stages(eeveeChain, 135)
	require.Len(t, stages, 4)

	assert.Equal(t, "eevee", stages[0].Name)
	assert.Zero(t, stages[0].ParentID)
	assert.Equal(t, 133, stages[2].ParentID)
	assert.Equal(t, 1, stages[2].Depth)
	assert.True(t, stages[2].Current)
	assert.False(t, stages[1].Current)
	assert.Equal(t, "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/135.png", stages[2].SpriteURL)
}
