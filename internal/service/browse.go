package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jeduden/bmad-pokedex/internal/browse"
	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/id"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

const (
	sessionPrefix = "browse"

	// DefaultSessionTTL is how long an untouched browse session survives.
	DefaultSessionTTL = 30 * time.Minute
)

// SessionView is the client-facing state of a browse session.
type SessionView struct {
	ID         string            `json:"id"`
	Types      []string          `json:"types"`
	Generation int               `json:"generation,omitempty"`
	Location   string            `json:"location" doc:"Filter encoded as type/gen query parameters"`
	Active     bool              `json:"active" doc:"Whether any type or generation constraint is set"`
	Total      int               `json:"total"`
	Items      []pokeapi.Pokemon `json:"items"`
	HasMore    bool              `json:"has_more"`
}

type sessionEntry struct {
	session    *browse.Session
	lastAccess time.Time
}

// BrowseOptions configures the browse service.
type BrowseOptions struct {
	PageSize   int
	SessionTTL time.Duration
	// Cache stores resolved type-set unions. Nil resolves them on every load.
	Cache *cache.Cache
	// UnionPolicy governs cached unions; it defaults to cache.Reference.
	UnionPolicy cache.Policy
	Logger      *slog.Logger
	Now         func() time.Time
}

// BrowseService serves the filtered browse grid, either one stateless page
// at a time or through server-held sessions that accumulate pages.
type BrowseService struct {
	upstream Upstream
	members  browse.MembershipSource
	pageSize int
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBrowseService creates the browse service and starts the session janitor.
func NewBrowseService(upstream Upstream, opts BrowseOptions) *BrowseService {
	if opts.PageSize <= 0 {
		opts.PageSize = browse.DefaultPageSize
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.UnionPolicy == (cache.Policy{}) {
		opts.UnionPolicy = cache.Reference
	}

	s := &BrowseService{
		upstream: upstream,
		members:  browse.CachedSource{MembershipSource: upstream, Cache: opts.Cache, Policy: opts.UnionPolicy},
		pageSize: opts.PageSize,
		ttl:      opts.SessionTTL,
		logger:   opts.Logger,
		now:      opts.Now,
		sessions: make(map[string]*sessionEntry),
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.janitor()
	return s
}

// PageSize returns the configured page size.
func (s *BrowseService) PageSize() int {
	return s.pageSize
}

// Page loads one page of the grid for filter. page is zero-based.
func (s *BrowseService) Page(ctx context.Context, filter browse.Filter, page int) (*browse.PageResult, error) {
	return browse.Page(ctx, s.members, s.upstream, filter, page, s.pageSize)
}

// CreateSession opens a session for filter and loads its first page.
func (s *BrowseService) CreateSession(ctx context.Context, filter browse.Filter) (*SessionView, error) {
	sessionID, err := id.Generate(sessionPrefix)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate session id")
	}

	sess := browse.NewSession(s.members, s.upstream, filter, s.pageSize)
	if err := sess.LoadNext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sessionID] = &sessionEntry{session: sess, lastAccess: s.now()}
	count := len(s.sessions)
	s.mu.Unlock()

	s.logger.Debug("browse session created", "session_id", sessionID, "filter", filter.Key(), "sessions", count)
	return viewOf(sessionID, sess.Snapshot()), nil
}

// Session returns the current state of a session.
func (s *BrowseService) Session(sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return viewOf(sessionID, sess.Snapshot()), nil
}

// Next loads the session's next page.
func (s *BrowseService) Next(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.LoadNext(ctx); err != nil {
		return nil, err
	}
	return viewOf(sessionID, sess.Snapshot()), nil
}

// SetFilter replaces the session's filter and reloads from the first page.
func (s *BrowseService) SetFilter(ctx context.Context, sessionID string, filter browse.Filter) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Reset(ctx, filter); err != nil {
		return nil, err
	}
	return viewOf(sessionID, sess.Snapshot()), nil
}

// AmendFilter derives a new filter from the session's current one and
// reloads from the first page.
func (s *BrowseService) AmendFilter(ctx context.Context, sessionID string, fn func(browse.Filter) browse.Filter) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Amend(ctx, fn); err != nil {
		return nil, err
	}
	return viewOf(sessionID, sess.Snapshot()), nil
}

// ClearFilter drops every constraint from the session's filter.
func (s *BrowseService) ClearFilter(ctx context.Context, sessionID string) (*SessionView, error) {
	return s.AmendFilter(ctx, sessionID, browse.Filter.Cleared)
}

// DeleteSession drops a session.
func (s *BrowseService) DeleteSession(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return errors.NotFoundf("browse session %q not found", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

// SessionCount returns the number of live sessions.
func (s *BrowseService) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *BrowseService) lookup(sessionID string) (*browse.Session, error) {
	if !id.Valid(sessionPrefix, sessionID) {
		return nil, errors.NotFoundf("browse session %q not found", sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.NotFoundf("browse session %q not found", sessionID)
	}
	entry.lastAccess = s.now()
	return entry.session, nil
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (s *BrowseService) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.sessions {
		if entry.lastAccess.Before(cutoff) {
			delete(s.sessions, key)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("expired browse sessions", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

func (s *BrowseService) janitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(max(s.ttl/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}

// Close stops the janitor. It is safe to call more than once.
func (s *BrowseService) Close() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

func viewOf(sessionID string, snap browse.Snapshot) *SessionView {
	items := snap.Items
	if items == nil {
		items = []pokeapi.Pokemon{}
	}
	types := snap.Filter.Types()
	if types == nil {
		types = []string{}
	}
	return &SessionView{
		ID:         sessionID,
		Types:      types,
		Generation: snap.Filter.Generation(),
		Location:   snap.Filter.Key(),
		Active:     snap.Filter.Active(),
		Total:      snap.Total,
		Items:      items,
		HasMore:    snap.HasMore,
	}
}
