package effectiveness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

func typeInfo(name string, double, half, none []string) pokeapi.TypeInfo {
	return pokeapi.TypeInfo{
		Name: name,
		DamageRelations: pokeapi.DamageRelations{
			DoubleDamageFrom: double,
			HalfDamageFrom:   half,
			NoDamageFrom:     none,
		},
	}
}

var (
	fire = typeInfo("fire",
		[]string{"water", "ground", "rock"},
		[]string{"fire", "grass", "ice", "bug", "steel", "fairy"},
		nil)
	flying = typeInfo("flying",
		[]string{"electric", "ice", "rock"},
		[]string{"grass", "fighting", "bug"},
		[]string{"ground"})
	electric = typeInfo("electric",
		[]string{"ground"},
		[]string{"electric", "flying", "steel"},
		nil)
)

func TestCompute_SingleType(t *testing.T) {
	res, err := Compute([]pokeapi.TypeInfo{electric})
	require.NoError(t, err)

	assert.Equal(t, []Multiplier{{"ground", 2}}, res.Weaknesses)
	assert.Equal(t, []Multiplier{{"electric", 0.5}, {"flying", 0.5}, {"steel", 0.5}}, res.Resistances)
	assert.Empty(t, res.Immunities)
}

func TestCompute_DualTypeCombines(t *testing.T) {
	res, err := Compute([]pokeapi.TypeInfo{fire, flying})
	require.NoError(t, err)

	assert.Equal(t, []Multiplier{
		{"rock", 4},
		{"electric", 2},
		{"water", 2},
	}, res.Weaknesses, "descending, ties broken by name")

	assert.Equal(t, []Multiplier{
		{"bug", 0.25},
		{"grass", 0.25},
		{"fairy", 0.5},
		{"fighting", 0.5},
		{"fire", 0.5},
		{"steel", 0.5},
	}, res.Resistances, "ascending, ties broken by name")

	assert.Equal(t, []string{"ground"}, res.Immunities, "immunity beats the fire weakness")

	for _, w := range res.Weaknesses {
		assert.NotEqual(t, "ice", w.Type, "ice is 2 x 0.5 = 1 and is omitted")
	}
	for _, r := range res.Resistances {
		assert.NotEqual(t, "ice", r.Type)
	}
}

func TestCompute_OrderIndependent(t *testing.T) {
	a, err := Compute([]pokeapi.TypeInfo{fire, flying})
	require.NoError(t, err)
	b, err := Compute([]pokeapi.TypeInfo{flying, fire})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCompute_IgnoresUnknownTags(t *testing.T) {
	odd := typeInfo("odd", []string{"shadow", "water"}, []string{"stellar"}, []string{"unknown"})

	res, err := Compute([]pokeapi.TypeInfo{odd})
	require.NoError(t, err)

	assert.Equal(t, []Multiplier{{"water", 2}}, res.Weaknesses)
	assert.Empty(t, res.Resistances)
	assert.Empty(t, res.Immunities)
}

func TestCompute_EmptyInput(t *testing.T) {
	_, err := Compute(nil)
	assert.ErrorIs(t, err, errors.ErrIncompleteData)
}

type fakeSource map[string]pokeapi.TypeInfo

func (f fakeSource) Type(_ context.Context, name string) (*pokeapi.TypeInfo, error) {
	t, ok := f[name]
	if !ok {
		return nil, errors.Transport(503, "503 Service Unavailable")
	}
	return &t, nil
}

func TestFor(t *testing.T) {
	src := fakeSource{"fire": fire, "flying": flying}

	res, err := For(context.Background(), src, []string{"fire", "flying"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ground"}, res.Immunities)
}

func TestFor_AnyFailureIsIncomplete(t *testing.T) {
	src := fakeSource{"fire": fire}

	_, err := For(context.Background(), src, []string{"fire", "flying"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIncompleteData)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "data unavailable", domainErr.Message)
}
