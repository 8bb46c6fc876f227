package browse

import (
	"context"
	"slices"
	"sync"

	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// DefaultPageSize is the number of entities per loaded page.
const DefaultPageSize = 20

// Session accumulates browse pages for one filter, like an infinite scroll.
// It is safe for concurrent use: overlapping LoadNext calls share one load,
// and a load that completes after Reset is discarded.
type Session struct {
	src      MembershipSource
	fetcher  Fetcher
	pageSize int

	mu       sync.Mutex
	filter   Filter
	gen      uint64
	ids      []int
	resolved bool
	items    []pokeapi.Pokemon
	cursor   int
	inflight *pageLoad
}

type pageLoad struct {
	done chan struct{}
	err  error
}

// Snapshot is a consistent view of a session.
type Snapshot struct {
	Filter  Filter
	Total   int
	Items   []pokeapi.Pokemon
	HasMore bool
}

// NewSession creates a session; no data is loaded until LoadNext.
func NewSession(src MembershipSource, fetcher Fetcher, filter Filter, pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{src: src, fetcher: fetcher, pageSize: pageSize, filter: filter}
}

// Filter returns the current filter.
func (s *Session) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Total returns the number of matching ids, or 0 before the first load.
func (s *Session) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Items returns the loaded entities in id order.
func (s *Session) Items() []pokeapi.Pokemon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// HasMore reports whether LoadNext can add items. It is true before the
// matching ids are first resolved.
func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMoreLocked()
}

func (s *Session) hasMoreLocked() bool {
	return !s.resolved || s.cursor < len(s.ids)
}

// Snapshot returns filter, totals and items under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Filter:  s.filter,
		Total:   len(s.ids),
		Items:   slices.Clone(s.items),
		HasMore: s.hasMoreLocked(),
	}
}

// LoadNext loads the next page. Concurrent callers wait on the load already
// in flight instead of starting another. A page in which every entity fails
// returns an error and leaves the cursor where it was.
func (s *Session) LoadNext(ctx context.Context) error {
	s.mu.Lock()
	if l := s.inflight; l != nil {
		s.mu.Unlock()
		select {
		case <-l.done:
			return l.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	l := &pageLoad{done: make(chan struct{})}
	s.inflight = l
	gen, filter, ids, resolved, cursor := s.gen, s.filter, s.ids, s.resolved, s.cursor
	s.mu.Unlock()

	l.err = s.load(ctx, gen, filter, ids, resolved, cursor)

	s.mu.Lock()
	if s.inflight == l {
		s.inflight = nil
	}
	s.mu.Unlock()
	close(l.done)

	return l.err
}

func (s *Session) load(ctx context.Context, gen uint64, filter Filter, ids []int, resolved bool, cursor int) error {
	if !resolved {
		matched, err := MatchingIDs(ctx, s.src, filter)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if s.gen != gen {
			s.mu.Unlock()
			return nil
		}
		s.ids, s.resolved = matched, true
		s.mu.Unlock()
		ids = matched
	}

	if cursor >= len(ids) {
		return nil
	}
	end := min(cursor+s.pageSize, len(ids))

	items, err := loadSlice(ctx, s.fetcher, ids[cursor:end])
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		// Reset happened while loading.
		return nil
	}
	s.items = append(s.items, items...)
	s.cursor = end
	return nil
}

// Reset switches to filter, discarding loaded items and any load in
// flight, then loads the first page.
func (s *Session) Reset(ctx context.Context, filter Filter) error {
	return s.Amend(ctx, func(Filter) Filter { return filter })
}

// Amend derives the new filter from the current one under the session lock,
// then resets as Reset does.
func (s *Session) Amend(ctx context.Context, fn func(Filter) Filter) error {
	s.mu.Lock()
	s.gen++
	s.filter = fn(s.filter)
	s.ids = nil
	s.resolved = false
	s.items = nil
	s.cursor = 0
	s.inflight = nil
	s.mu.Unlock()

	return s.LoadNext(ctx)
}
