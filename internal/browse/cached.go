package browse

import (
	"context"
	"encoding/json"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/errors"
)

const unionOp = "type-union"

// CachedSource stores type-set unions in a response cache. The key ignores
// the order and repetition of the type names, so "fire,flying" and
// "flying,fire" share one entry.
type CachedSource struct {
	MembershipSource
	Cache  *cache.Cache
	Policy cache.Policy
}

var _ UnionSource = CachedSource{}

// TypeUnion implements UnionSource.
func (s CachedSource) TypeUnion(ctx context.Context, types []string) ([]int, error) {
	if s.Cache == nil {
		return TypeUnion(ctx, s.MembershipSource, types)
	}

	body, err := s.Cache.Fetch(ctx, UnionKey(types...), s.Policy, func(ctx context.Context) ([]byte, error) {
		ids, err := TypeUnion(ctx, s.MembershipSource, types)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ids)
	})
	if err != nil {
		return nil, err
	}

	var ids []int
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, errors.Wrap(err, errors.CodeDecode, "decode cached type union")
	}
	return ids, nil
}

// UnionKey is the cache key of the union of types.
func UnionKey(types ...string) cache.Key {
	return cache.NewSetKey(unionOp, types...)
}
