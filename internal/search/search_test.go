package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

var testItems = []pokeapi.ListItem{
	{ID: 1, Name: "bulbasaur"},
	{ID: 4, Name: "charmander"},
	{ID: 5, Name: "charmeleon"},
	{ID: 6, Name: "charizard"},
	{ID: 25, Name: "pikachu"},
	{ID: 122, Name: "mr-mime"},
	{ID: 250, Name: "ho-oh"},
	{ID: 252, Name: "treecko"},
	{ID: 0, Name: "broken"},
}

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	ix, err := NewIndex(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })

	require.NoError(t, ix.Load(testItems))
	return ix
}

func hitIDs(hits []Hit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestIndex_Load(t *testing.T) {
	ix := setupTestIndex(t)

	count, err := ix.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(8), count, "item without id is skipped")
}

func TestIndex_Search(t *testing.T) {
	ix := setupTestIndex(t)

	tests := []struct {
		name string
		term string
		want []int
	}{
		{"substring", "char", []int{4, 5, 6}},
		{"middle of name", "mele", []int{5}},
		{"case and spaces", "  PIKA ", []int{25}},
		{"hyphenated", "r-m", []int{122}},
		{"id match", "25", []int{25}},
		{"id or name", "1", []int{1}},
		{"padded id does not match", "025", []int{}},
		{"wildcards stripped", "ch*a?r", []int{4, 5, 6}},
		{"regexp chars are literal", "ho.oh", []int{}},
		{"blank", "   ", []int{}},
		{"no match", "zzz", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := ix.Search(context.Background(), tt.term, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hitIDs(hits))
		})
	}
}

func TestIndex_SearchReturnsNames(t *testing.T) {
	ix := setupTestIndex(t)

	hits, err := ix.Search(context.Background(), "pika", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, Hit{ID: 25, Name: "pikachu"}, hits[0])
}

func TestIndex_SearchLimitAndOrder(t *testing.T) {
	ix, err := NewIndex(nil)
	require.NoError(t, err)
	defer func() { _ = ix.Close() }()

	var items []pokeapi.ListItem
	for id := 30; id >= 1; id-- {
		items = append(items, pokeapi.ListItem{ID: id, Name: "mon"})
	}
	require.NoError(t, ix.Load(items))

	hits, err := ix.Search(context.Background(), "mon", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, hitIDs(hits), "default limit, ascending id")

	hits, err = ix.Search(context.Background(), "mon", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, hitIDs(hits))
}

type fakeLister struct {
	limit, offset int
	err           error
}

func (f *fakeLister) PokemonList(_ context.Context, limit, offset int) (*pokeapi.ListPage, error) {
	f.limit, f.offset = limit, offset
	if f.err != nil {
		return nil, f.err
	}
	return &pokeapi.ListPage{Count: len(testItems), Items: testItems}, nil
}

func TestBuild(t *testing.T) {
	src := &fakeLister{}
	ix, err := Build(context.Background(), src, nil)
	require.NoError(t, err)
	defer func() { _ = ix.Close() }()

	assert.Equal(t, dex.TotalPokemon, src.limit)
	assert.Zero(t, src.offset)

	hits, err := ix.Search(context.Background(), "treecko", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{252}, hitIDs(hits))
}

func TestBuild_ListFailure(t *testing.T) {
	_, err := Build(context.Background(), &fakeLister{err: errors.Network(context.DeadlineExceeded)}, nil)
	assert.ErrorIs(t, err, errors.ErrNetwork)
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "mr mime", NormalizeTerm("  Mr Mime\t"))
	assert.Equal(t, "pika", NormalizeTerm("*PIKA?"))
}

func TestDebouncer_CommitsOnceForBurst(t *testing.T) {
	var mu sync.Mutex
	var got []string
	d := NewDebouncer(20*time.Millisecond, func(v string) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})
	defer d.Stop()

	for _, v := range []string{"p", "pi", "pik", "pika"} {
		d.Push(v)
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, time.Second, 5*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"pika"}, got)
	assert.False(t, d.Pending())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	var commits atomic.Int32
	d := NewDebouncer(10*time.Millisecond, func(string) { commits.Add(1) })

	d.Push("x")
	d.Stop()
	d.Stop()
	d.Push("y")

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, commits.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_DefaultDelay(t *testing.T) {
	d := NewDebouncer(0, func(int) {})
	assert.Equal(t, DefaultDebounce, d.delay)
}

// slowSearcher blocks searches for terms listed in gates until released.
type slowSearcher struct {
	gates map[string]chan struct{}
	calls atomic.Int32
}

func (s *slowSearcher) Search(ctx context.Context, term string, _ int) ([]Hit, error) {
	s.calls.Add(1)
	if gate, ok := s.gates[term]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []Hit{{ID: len(term), Name: term}}, nil
}

type collector struct {
	mu      sync.Mutex
	results []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.results = append(c.results, r)
	c.mu.Unlock()
}

func (c *collector) snapshot() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

func TestLive_DeliversSettledTerm(t *testing.T) {
	searcher := &slowSearcher{}
	var c collector
	live := NewLive(context.Background(), searcher, LiveOptions{Debounce: 10 * time.Millisecond}, c.add)
	defer live.Close()

	live.Input("b")
	live.Input("bu")
	seq := live.Input("Bulb")

	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	r := c.snapshot()[0]
	assert.Equal(t, seq, r.Seq)
	assert.Equal(t, "bulb", r.Term)
	assert.NoError(t, r.Err)
	assert.Equal(t, int32(1), searcher.calls.Load())
}

func TestLive_DropsSupersededResult(t *testing.T) {
	gate := make(chan struct{})
	searcher := &slowSearcher{gates: map[string]chan struct{}{"slow": gate}}
	var c collector
	live := NewLive(context.Background(), searcher, LiveOptions{Debounce: 5 * time.Millisecond}, c.add)
	defer live.Close()

	live.Input("slow")
	require.Eventually(t, func() bool { return searcher.calls.Load() == 1 }, time.Second, time.Millisecond)

	seq := live.Input("fast")
	require.Eventually(t, func() bool { return len(c.snapshot()) == 1 }, time.Second, time.Millisecond)

	close(gate)
	time.Sleep(20 * time.Millisecond)

	results := c.snapshot()
	require.Len(t, results, 1, "slow result arrived after newer input")
	assert.Equal(t, seq, results[0].Seq)
	assert.Equal(t, "fast", results[0].Term)
}

func TestLive_CloseCancelsInFlight(t *testing.T) {
	searcher := &slowSearcher{gates: map[string]chan struct{}{"slow": make(chan struct{})}}
	var c collector
	live := NewLive(context.Background(), searcher, LiveOptions{Debounce: 5 * time.Millisecond}, c.add)

	live.Input("slow")
	require.Eventually(t, func() bool { return searcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	live.Close()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c.snapshot())
}

func TestLive_InputNotBlockedBySlowConsumer(t *testing.T) {
	release := make(chan struct{})
	var entered atomic.Int32
	deliver := func(Result) {
		entered.Add(1)
		<-release
	}

	live := NewLive(context.Background(), &slowSearcher{}, LiveOptions{Debounce: 5 * time.Millisecond}, deliver)
	defer live.Close()
	defer close(release)

	live.Input("a")
	require.Eventually(t, func() bool { return entered.Load() == 1 }, time.Second, time.Millisecond)

	done := make(chan uint64, 1)
	go func() { done <- live.Input("ab") }()

	select {
	case seq := <-done:
		assert.Equal(t, uint64(2), seq)
	case <-time.After(time.Second):
		t.Fatal("Input blocked while a result was being delivered")
	}
}
