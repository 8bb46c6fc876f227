package browse

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

type fakeMembers struct {
	members map[string][]int
	errs    map[string]error
	calls   atomic.Int32
}

func (f *fakeMembers) TypeMembers(_ context.Context, name string) ([]int, error) {
	f.calls.Add(1)
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	ids, ok := f.members[name]
	if !ok {
		return nil, errors.NotFoundf("type %s not found", name)
	}
	return ids, nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   atomic.Int32
	fail    map[int]bool
	block   chan struct{}
	gates   map[int]chan struct{} // keyed by a batch's first id
	batches [][]int
}

func (f *fakeFetcher) PokemonBatch(_ context.Context, ids []int) ([]pokeapi.Pokemon, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.batches = append(f.batches, append([]int(nil), ids...))
	f.mu.Unlock()

	if f.block != nil {
		<-f.block
	}
	if len(ids) > 0 {
		if gate, ok := f.gates[ids[0]]; ok {
			<-gate
		}
	}

	// Return in reverse to check the caller re-sorts.
	var out []pokeapi.Pokemon
	for i := len(ids) - 1; i >= 0; i-- {
		if f.fail[ids[i]] {
			continue
		}
		out = append(out, pokeapi.Pokemon{ID: ids[i]})
	}
	if len(out) == 0 {
		return nil, errors.Transport(503, "503 Service Unavailable")
	}
	return out, nil
}

func ids(items []pokeapi.Pokemon) []int {
	out := make([]int, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func TestParseFilter(t *testing.T) {
	v := url.Values{"type": {"water,FIRE,shadow,fire"}, "gen": {"1"}}
	f := ParseFilter(v)

	assert.Equal(t, []string{"fire", "water"}, f.Types())
	assert.Equal(t, 1, f.Generation())
	assert.True(t, f.Active())
	assert.Equal(t, "gen=1&type=fire%2Cwater", f.Key())
}

func TestParseFilter_DropsUnknownGeneration(t *testing.T) {
	for _, gen := range []string{"0", "10", "abc", ""} {
		f := ParseFilter(url.Values{"gen": {gen}})
		assert.Equal(t, 0, f.Generation(), "gen=%q", gen)
		assert.False(t, f.Active())
	}
}

func TestFilter_ValuesRoundTrip(t *testing.T) {
	f := NewFilter([]string{"grass", "bug"}, 3)
	assert.True(t, f.Equal(ParseFilter(f.Values())))

	assert.Empty(t, Filter{}.Values(), "empty parts are omitted")
}

func TestFilter_Replacements(t *testing.T) {
	f := NewFilter([]string{"fire"}, 2)

	g := f.WithTypes("water")
	assert.Equal(t, []string{"water"}, g.Types(), "types are replaced, not appended")
	assert.Equal(t, 2, g.Generation())

	h := f.WithGeneration(0)
	assert.Equal(t, []string{"fire"}, h.Types())
	assert.Equal(t, 0, h.Generation())

	assert.False(t, f.Cleared().Active())
	assert.Equal(t, []string{"fire"}, f.Types(), "original is unchanged")
}

func TestFilter_Range(t *testing.T) {
	start, end := Filter{}.Range()
	assert.Equal(t, 1, start)
	assert.Equal(t, dex.TotalPokemon, end)

	start, end = NewFilter(nil, 2).Range()
	assert.Equal(t, 152, start)
	assert.Equal(t, 251, end)
}

func TestMatchingIDs_NoTypesUsesRange(t *testing.T) {
	got, err := MatchingIDs(context.Background(), &fakeMembers{}, NewFilter(nil, 1))
	require.NoError(t, err)

	assert.Len(t, got, 151)
	assert.Equal(t, 1, got[0])
	assert.Equal(t, 151, got[150])
}

func TestMatchingIDs_UnionIntersectSort(t *testing.T) {
	src := &fakeMembers{members: map[string][]int{
		"fire":  {4, 5, 6, 155, 37},
		"water": {7, 8, 6, 158},
	}}

	got, err := MatchingIDs(context.Background(), src, NewFilter([]string{"fire", "water"}, 1))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7, 8, 37}, got)
}

func TestMatchingIDs_UnknownTypeContributesNothing(t *testing.T) {
	src := &fakeMembers{members: map[string][]int{"fire": {4}}}

	got, err := MatchingIDs(context.Background(), src, NewFilter([]string{"fire", "fairy"}, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{4}, got)
}

func TestMatchingIDs_OtherErrorsPropagate(t *testing.T) {
	src := &fakeMembers{
		members: map[string][]int{"fire": {4}},
		errs:    map[string]error{"water": errors.Network(context.DeadlineExceeded)},
	}

	_, err := MatchingIDs(context.Background(), src, NewFilter([]string{"fire", "water"}, 0))
	assert.ErrorIs(t, err, errors.ErrNetwork)
}

func TestMatchingIDs_NoOverlapIsEmpty(t *testing.T) {
	src := &fakeMembers{members: map[string][]int{"fire": {4, 5}}}

	got, err := MatchingIDs(context.Background(), src, NewFilter([]string{"fire"}, 9))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestCachedSource_SharesEntryAcrossOrder(t *testing.T) {
	src := &fakeMembers{members: map[string][]int{
		"fire":   {4, 5, 6, 146, 200},
		"flying": {6, 16, 146},
	}}
	c := cache.New(cache.Options{})
	t.Cleanup(c.Close)
	cached := CachedSource{MembershipSource: src, Cache: c, Policy: cache.Reference}

	tests := []struct {
		name  string
		types []string
	}{
		{name: "first order", types: []string{"flying", "fire"}},
		{name: "reversed", types: []string{"fire", "flying"}},
		{name: "repeated", types: []string{"fire", "flying", "fire"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cached.TypeUnion(context.Background(), tt.types)
			require.NoError(t, err)
			assert.Equal(t, []int{4, 5, 6, 16, 146, 200}, got)
		})
	}

	assert.Equal(t, int32(2), src.calls.Load(), "one upstream read per type")
	assert.Equal(t, 1, c.Len())
	_, state := c.Get(UnionKey("fire", "flying"))
	assert.Equal(t, cache.Fresh, state)

	ids, err := MatchingIDs(context.Background(), cached, NewFilter([]string{"flying", "fire"}, 1))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 16, 146}, ids)
	assert.Equal(t, int32(2), src.calls.Load(), "generation narrowing reuses the cached union")
}

func TestCachedSource_DoesNotCacheFailures(t *testing.T) {
	src := &fakeMembers{
		members: map[string][]int{"fire": {4}},
		errs:    map[string]error{"water": errors.Network(context.DeadlineExceeded)},
	}
	c := cache.New(cache.Options{})
	t.Cleanup(c.Close)
	cached := CachedSource{MembershipSource: src, Cache: c, Policy: cache.Reference}

	_, err := cached.TypeUnion(context.Background(), []string{"fire", "water"})
	assert.ErrorIs(t, err, errors.ErrNetwork)
	assert.Zero(t, c.Len())
}

func TestPage(t *testing.T) {
	fetcher := &fakeFetcher{}
	f := NewFilter(nil, 1)

	res, err := Page(context.Background(), &fakeMembers{}, fetcher, f, 7, 20)
	require.NoError(t, err)

	assert.Equal(t, 151, res.Total)
	assert.Equal(t, []int{141, 142, 143, 144, 145, 146, 147, 148, 149, 150, 151}, ids(res.Items))
	assert.False(t, res.HasMore)

	res, err = Page(context.Background(), &fakeMembers{}, fetcher, f, 8, 20)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, int32(1), fetcher.calls.Load(), "page past the end does not fetch")

	_, err = Page(context.Background(), &fakeMembers{}, fetcher, f, -1, 20)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestPage_HugeIndexIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		index int
		size  int
	}{
		{name: "offset wraps negative", index: 461168601842738791, size: 20},
		{name: "offset wraps to zero", index: 1 << 62, size: 4},
		{name: "max int", index: int(^uint(0) >> 1), size: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{}
			res, err := Page(context.Background(), &fakeMembers{}, fetcher, NewFilter(nil, 1), tt.index, tt.size)
			require.NoError(t, err)
			assert.Empty(t, res.Items)
			assert.Equal(t, 151, res.Total)
			assert.False(t, res.HasMore)
			assert.Zero(t, fetcher.calls.Load())
		})
	}
}

func TestSession_LoadsPagesInOrder(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[int]bool{3: true}}
	s := NewSession(&fakeMembers{}, fetcher, NewFilter(nil, 1), 20)

	assert.True(t, s.HasMore(), "unknown before first load")

	require.NoError(t, s.LoadNext(context.Background()))
	assert.Equal(t, 151, s.Total())
	assert.Len(t, s.Items(), 19, "failed id dropped")
	assert.Equal(t, 1, s.Items()[0].ID)

	for s.HasMore() {
		require.NoError(t, s.LoadNext(context.Background()))
	}

	got := ids(s.Items())
	assert.Len(t, got, 150)
	assert.IsIncreasing(t, got)
	assert.Equal(t, int32(8), fetcher.calls.Load(), "each page fetched once")

	require.NoError(t, s.LoadNext(context.Background()))
	assert.Equal(t, int32(8), fetcher.calls.Load(), "nothing left to fetch")
}

func TestSession_ConcurrentLoadNextCollapse(t *testing.T) {
	fetcher := &fakeFetcher{block: make(chan struct{})}
	s := NewSession(&fakeMembers{}, fetcher, Filter{}, 20)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.LoadNext(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(fetcher.block)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Len(t, s.Items(), 20)
}

func TestSession_ResetDiscardsLateLoad(t *testing.T) {
	tests := []struct {
		name       string
		staleFirst bool
	}{
		{name: "stale load finishes last", staleFirst: false},
		{name: "stale load finishes first", staleFirst: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stale, fresh := make(chan struct{}), make(chan struct{})
			fetcher := &fakeFetcher{gates: map[int]chan struct{}{1: stale, 4: fresh}}
			src := &fakeMembers{members: map[string][]int{"fire": {4, 5, 6}}}
			s := NewSession(src, fetcher, Filter{}, 20)

			loadDone := make(chan error, 1)
			go func() { loadDone <- s.LoadNext(context.Background()) }()
			require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)

			resetDone := make(chan error, 1)
			go func() { resetDone <- s.Reset(context.Background(), NewFilter([]string{"fire"}, 0)) }()
			require.Eventually(t, func() bool { return fetcher.calls.Load() == 2 }, time.Second, time.Millisecond)

			if tt.staleFirst {
				close(stale)
				require.NoError(t, <-loadDone)
				close(fresh)
				require.NoError(t, <-resetDone)
			} else {
				close(fresh)
				require.NoError(t, <-resetDone)
				close(stale)
				require.NoError(t, <-loadDone)
			}

			snap := s.Snapshot()
			assert.Equal(t, []string{"fire"}, snap.Filter.Types())
			assert.Equal(t, 3, snap.Total)
			assert.Equal(t, []int{4, 5, 6}, ids(snap.Items))
			assert.False(t, snap.HasMore)
		})
	}
}

func TestSession_FailedPageDoesNotAdvance(t *testing.T) {
	fail := map[int]bool{}
	for id := 1; id <= 20; id++ {
		fail[id] = true
	}
	fetcher := &fakeFetcher{fail: fail}
	s := NewSession(&fakeMembers{}, fetcher, NewFilter(nil, 1), 20)

	err := s.LoadNext(context.Background())
	assert.ErrorIs(t, err, errors.ErrTransport)
	assert.Empty(t, s.Items())
	assert.True(t, s.HasMore())

	fetcher.fail = nil
	require.NoError(t, s.LoadNext(context.Background()))
	assert.Equal(t, 1, s.Items()[0].ID, "retry loads the same page")
}
