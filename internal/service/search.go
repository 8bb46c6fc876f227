package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jeduden/bmad-pokedex/internal/search"
)

// SearchOptions configures the search service.
type SearchOptions struct {
	Limit    int
	Debounce time.Duration
	Logger   *slog.Logger
}

// SearchService answers name/id searches over the full entity list. The
// index is built on first use; a failed build is retried on the next call.
type SearchService struct {
	lister   search.Lister
	limit    int
	debounce time.Duration
	logger   *slog.Logger

	mu    sync.Mutex
	index *search.Index
}

// NewSearchService creates the search service.
func NewSearchService(lister search.Lister, opts SearchOptions) *SearchService {
	if opts.Limit <= 0 {
		opts.Limit = search.DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{
		lister:   lister,
		limit:    opts.Limit,
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
}

// Search returns up to limit matches for term; a non-positive limit uses the
// configured default.
func (s *SearchService) Search(ctx context.Context, term string, limit int) ([]search.Hit, error) {
	if search.NormalizeTerm(term) == "" {
		return []search.Hit{}, nil
	}
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	ix, err := s.ensureIndex(ctx)
	if err != nil {
		return nil, err
	}
	return ix.Search(ctx, term, limit)
}

// Live starts a debounced search session that reports to deliver.
func (s *SearchService) Live(ctx context.Context, deliver func(search.Result)) *search.Live {
	return search.NewLive(ctx, s, search.LiveOptions{
		Debounce: s.debounce,
		Limit:    s.limit,
		Logger:   s.logger,
	}, deliver)
}

// Ready reports whether the index has been built.
func (s *SearchService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index != nil
}

func (s *SearchService) ensureIndex(ctx context.Context) (*search.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index != nil {
		return s.index, nil
	}

	start := time.Now()
	ix, err := search.Build(ctx, s.lister, s.logger)
	if err != nil {
		s.logger.Warn("search index build failed", "error", err)
		return nil, err
	}
	s.logger.Info("search index ready", "took", time.Since(start))
	s.index = ix
	return ix, nil
}

// Close releases the index.
func (s *SearchService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
