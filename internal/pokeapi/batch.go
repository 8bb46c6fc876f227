package pokeapi

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jeduden/bmad-pokedex/internal/errors"
)

// PokemonBatch fetches the given ids concurrently. Results keep the order of
// ids; ids that fail are dropped. An error is returned only when every id
// failed, and it carries the class of the first failure.
func (c *Client) PokemonBatch(ctx context.Context, ids []int) ([]Pokemon, error) {
	if len(ids) == 0 {
		return []Pokemon{}, nil
	}

	results := make([]*Pokemon, len(ids))
	errs := make([]error, len(ids))

	// Individual failures must not cancel siblings, so the group has no context.
	var g errgroup.Group
	g.SetLimit(c.batchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			p, err := c.PokemonByID(ctx, id)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = p
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Pokemon, 0, len(ids))
	var firstErr error
	for i, p := range results {
		if p != nil {
			out = append(out, *p)
			continue
		}
		if firstErr == nil {
			firstErr = errs[i]
		}
		c.logger.Debug("batch item dropped", "id", ids[i], "error", errs[i])
	}

	if len(out) == 0 {
		return nil, wrapError("batch", fmt.Sprintf("%d ids", len(ids)),
			errors.Wrap(firstErr, errors.CodeOf(firstErr), "every item in the batch failed"))
	}
	return out, nil
}
