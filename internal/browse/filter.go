// Package browse resolves the browse grid: which entity ids match a filter
// and how they are loaded page by page.
package browse

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/jeduden/bmad-pokedex/internal/dex"
)

// Query parameter names of the filter wire format.
const (
	ParamType       = "type"
	ParamGeneration = "gen"
)

// Filter is an immutable browse filter: a set of types matched with OR
// semantics and an optional generation. The zero value matches everything.
type Filter struct {
	types      []string
	generation int
}

// NewFilter normalises its input: unknown types are dropped, the rest are
// sorted and de-duplicated; an unknown generation means "any".
func NewFilter(types []string, generation int) Filter {
	var clean []string
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if dex.IsType(t) {
			clean = append(clean, t)
		}
	}
	slices.Sort(clean)
	clean = slices.Compact(clean)

	if _, ok := dex.GenerationByNumber(generation); !ok {
		generation = 0
	}
	return Filter{types: clean, generation: generation}
}

// ParseFilter reads "type" (comma-separated, may repeat) and "gen".
func ParseFilter(v url.Values) Filter {
	var types []string
	for _, raw := range v[ParamType] {
		types = append(types, strings.Split(raw, ",")...)
	}

	gen, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamGeneration)))
	if err != nil {
		gen = 0
	}
	return NewFilter(types, gen)
}

// Types returns the selected types in sorted order.
func (f Filter) Types() []string {
	return slices.Clone(f.types)
}

// Generation returns the selected generation, or 0 for any.
func (f Filter) Generation() int {
	return f.generation
}

// Values encodes the filter, omitting empty parts.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if len(f.types) > 0 {
		v.Set(ParamType, strings.Join(f.types, ","))
	}
	if f.generation > 0 {
		v.Set(ParamGeneration, strconv.Itoa(f.generation))
	}
	return v
}

// WithTypes returns a filter whose types are replaced by types.
func (f Filter) WithTypes(types ...string) Filter {
	return NewFilter(types, f.generation)
}

// WithGeneration returns a filter whose generation is replaced by gen (0 clears it).
func (f Filter) WithGeneration(gen int) Filter {
	return NewFilter(f.types, gen)
}

// Cleared returns the empty filter.
func (f Filter) Cleared() Filter {
	return Filter{}
}

// Active reports whether any constraint is set.
func (f Filter) Active() bool {
	return len(f.types) > 0 || f.generation > 0
}

// Range returns the inclusive id range implied by the generation.
func (f Filter) Range() (start, end int) {
	if g, ok := dex.GenerationByNumber(f.generation); ok {
		return g.Start, g.End
	}
	return 1, dex.TotalPokemon
}

// Key identifies the filter; equal filters have equal keys.
func (f Filter) Key() string {
	return f.Values().Encode()
}

// Equal reports whether f and other select the same entities.
func (f Filter) Equal(other Filter) bool {
	return f.generation == other.generation && slices.Equal(f.types, other.types)
}
