package browse

import (
	"cmp"
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// MembershipSource lists the entity ids that have a type.
type MembershipSource interface {
	TypeMembers(ctx context.Context, name string) ([]int, error)
}

// Fetcher loads entities by id, dropping the ones that fail.
type Fetcher interface {
	PokemonBatch(ctx context.Context, ids []int) ([]pokeapi.Pokemon, error)
}

// UnionSource resolves a whole type set in one call. MatchingIDs prefers it
// over per-type lookups when the source provides it.
type UnionSource interface {
	TypeUnion(ctx context.Context, types []string) ([]int, error)
}

// MatchingIDs returns the ascending ids selected by f. Without types, every
// id in the generation range matches. With types, the union of their
// membership lists is narrowed to the range.
func MatchingIDs(ctx context.Context, src MembershipSource, f Filter) ([]int, error) {
	start, end := f.Range()
	if start > end {
		return []int{}, nil
	}

	types := f.Types()
	if len(types) == 0 {
		ids := make([]int, 0, end-start+1)
		for id := start; id <= end; id++ {
			ids = append(ids, id)
		}
		return ids, nil
	}

	var union []int
	var err error
	if u, ok := src.(UnionSource); ok {
		union, err = u.TypeUnion(ctx, types)
	} else {
		union, err = TypeUnion(ctx, src, types)
	}
	if err != nil {
		return nil, err
	}

	ids := []int{}
	for _, id := range union {
		if id >= start && id <= end {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// TypeUnion fetches the membership lists of types concurrently and returns
// their ascending union. A type upstream does not know contributes nothing;
// other failures abort.
func TypeUnion(ctx context.Context, src MembershipSource, types []string) ([]int, error) {
	members := make([][]int, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		g.Go(func() error {
			ids, err := src.TypeMembers(gctx, t)
			if errors.Is(err, errors.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			members[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	union := []int{}
	for _, ids := range members {
		union = append(union, ids...)
	}
	slices.Sort(union)
	return slices.Compact(union), nil
}

// PageResult is one page of the browse grid.
type PageResult struct {
	Items    []pokeapi.Pokemon `json:"items"`
	Total    int               `json:"total" doc:"Number of matching entities"`
	Page     int               `json:"page" doc:"Zero-based page index"`
	PageSize int               `json:"page_size"`
	HasMore  bool              `json:"has_more"`
}

// Page resolves f and loads page index (zero-based) of the given size.
func Page(ctx context.Context, src MembershipSource, fetcher Fetcher, f Filter, index, size int) (*PageResult, error) {
	if index < 0 || size <= 0 {
		return nil, errors.Validationf("invalid page %d of size %d", index, size)
	}

	ids, err := MatchingIDs(ctx, src, f)
	if err != nil {
		return nil, err
	}

	res := &PageResult{Items: []pokeapi.Pokemon{}, Total: len(ids), Page: index, PageSize: size}

	// Compare page counts rather than offsets; index*size can overflow.
	if pages := (len(ids) + size - 1) / size; index >= pages {
		return res, nil
	}
	from := index * size
	to := min(from+size, len(ids))

	items, err := loadSlice(ctx, fetcher, ids[from:to])
	if err != nil {
		return nil, err
	}
	res.Items = items
	res.HasMore = to < len(ids)
	return res, nil
}

// loadSlice batch-fetches ids and returns the survivors sorted by id.
func loadSlice(ctx context.Context, fetcher Fetcher, ids []int) ([]pokeapi.Pokemon, error) {
	items, err := fetcher.PokemonBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, func(a, b pokeapi.Pokemon) int { return cmp.Compare(a.ID, b.ID) })
	return items, nil
}
