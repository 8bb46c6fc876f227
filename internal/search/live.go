package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Searcher answers a single search.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]Hit, error)
}

// Result is a completed live search.
type Result struct {
	Seq  uint64 `json:"seq"`
	Term string `json:"term"`
	Hits []Hit  `json:"hits"`
	Err  error  `json:"-"`
}

// LiveOptions configures a Live search.
type LiveOptions struct {
	Debounce time.Duration
	Limit    int
	Logger   *slog.Logger
}

type pendingTerm struct {
	seq  uint64
	term string
}

// Live debounces typed input and runs a search for the settled term.
// Results are delivered only while their input is still the latest one;
// a search overtaken by newer input is dropped.
type Live struct {
	searcher Searcher
	limit    int
	deliver  func(Result)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	deb    *Debouncer[pendingTerm]

	mu     sync.Mutex
	latest uint64

	// deliverMu serialises deliveries and guards closed. Input never takes
	// it, so a slow consumer cannot stall new input.
	deliverMu sync.Mutex
	closed    bool
}

// NewLive starts a live search bound to ctx. deliver receives results one at
// a time.
func NewLive(ctx context.Context, searcher Searcher, opts LiveOptions, deliver func(Result)) *Live {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	l := &Live{
		searcher: searcher,
		limit:    limit,
		deliver:  deliver,
		logger:   logger,
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.deb = NewDebouncer(opts.Debounce, l.run)
	return l
}

// Input records a new term. It returns the sequence number the eventual
// result will carry.
func (l *Live) Input(term string) uint64 {
	l.mu.Lock()
	l.latest++
	seq := l.latest
	l.mu.Unlock()

	l.deb.Push(pendingTerm{seq: seq, term: term})
	return seq
}

func (l *Live) run(p pendingTerm) {
	if l.ctx.Err() != nil {
		return
	}

	hits, err := l.searcher.Search(l.ctx, p.term, l.limit)

	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()
	if l.closed || !l.isLatest(p.seq) || l.ctx.Err() != nil {
		l.logger.Debug("dropping superseded search", "term", p.term, "seq", p.seq)
		return
	}
	l.deliver(Result{Seq: p.seq, Term: NormalizeTerm(p.term), Hits: hits, Err: err})
}

func (l *Live) isLatest(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return seq == l.latest
}

// Close stops pending input and cancels any search in flight. It waits for
// a delivery in progress; after Close returns, deliver is not called again.
func (l *Live) Close() {
	l.deb.Stop()
	l.cancel()

	l.deliverMu.Lock()
	l.closed = true
	l.deliverMu.Unlock()
}
