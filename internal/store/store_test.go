package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeduden/bmad-pokedex/internal/cache"
)

const testName = "bmad-pokedex-cache"

func openTestStore(t *testing.T, dir, version string) *Store {
	t.Helper()
	s, err := Open(Options{Path: dir, Name: testName, Version: version})
	require.NoError(t, err)
	return s
}

func entry(key string, now time.Time, evict time.Duration) cache.Entry {
	return cache.Entry{
		Key:        cache.Key(key),
		Value:      []byte(`{"id":25,"name":"pikachu"}`),
		CreatedAt:  now,
		StaleAfter: now.Add(5 * time.Minute),
		EvictAfter: now.Add(evict),
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s, err := Open(Options{InMemory: true, Name: testName, Version: "v1"})
	require.NoError(t, err)
	defer s.Close()

	now := time.Now()
	require.NoError(t, s.SaveEntry(entry("pokemon:25", now, 24*time.Hour)))
	require.NoError(t, s.SaveEntry(entry("type:electric", now, 24*time.Hour)))

	entries, err := s.LoadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byKey := map[cache.Key]cache.Entry{}
	for _, e := range entries {
		byKey[e.Key] = e
	}
	got, ok := byKey["pokemon:25"]
	require.True(t, ok)
	assert.JSONEq(t, `{"id":25,"name":"pikachu"}`, string(got.Value))
	assert.WithinDuration(t, now.Add(5*time.Minute), got.StaleAfter, time.Millisecond)
}

func TestStore_SkipsAlreadyEvicted(t *testing.T) {
	s, err := Open(Options{InMemory: true, Name: testName, Version: "v1"})
	require.NoError(t, err)
	defer s.Close()

	now := time.Now()
	require.NoError(t, s.SaveEntry(entry("pokemon:1", now.Add(-48*time.Hour), 24*time.Hour)))

	entries, err := s.LoadEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_DeleteEntry(t *testing.T) {
	s, err := Open(Options{InMemory: true, Name: testName, Version: "v1"})
	require.NoError(t, err)
	defer s.Close()

	now := time.Now()
	require.NoError(t, s.SaveEntry(entry("pokemon:4", now, time.Hour)))
	require.NoError(t, s.DeleteEntry("pokemon:4"))
	require.NoError(t, s.DeleteEntry("pokemon:missing"))

	entries, err := s.LoadEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_VersionChangeDropsEntries(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	first := openTestStore(t, dir, "v1")
	require.NoError(t, first.SaveEntry(entry("pokemon:25", now, 24*time.Hour)))
	require.NoError(t, first.Close())

	same := openTestStore(t, dir, "v1")
	entries, err := same.LoadEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 1, "same version keeps entries")
	require.NoError(t, same.Close())

	bumped := openTestStore(t, dir, "v2")
	defer bumped.Close()

	entries, err = bumped.LoadEntries()
	require.NoError(t, err)
	assert.Empty(t, entries, "new version starts cold")
	assert.Equal(t, "v2", bumped.Version())
}

func TestStore_ImplementsCachePersister(t *testing.T) {
	s, err := Open(Options{InMemory: true, Name: testName, Version: "v1"})
	require.NoError(t, err)
	defer s.Close()

	c := cache.New(cache.Options{Persister: s})
	c.Set(cache.NewKey("species", 25), []byte(`{"id":25}`), cache.Reference)
	c.Close()

	restored := cache.New(cache.Options{Persister: s})
	defer restored.Close()

	v, state := restored.Get(cache.NewKey("species", 25))
	assert.Equal(t, cache.Fresh, state)
	assert.JSONEq(t, `{"id":25}`, string(v))
}

func TestOpen_RequiresNameAndVersion(t *testing.T) {
	_, err := Open(Options{InMemory: true, Name: testName})
	assert.Error(t, err)
}

func TestBuildKey(t *testing.T) {
	k := buildKey("bmad-pokedex-cache", "v1", "pokemon:25")
	defer releaseKey(k)
	assert.Equal(t, "bmad-pokedex-cache:v1:pokemon:25", string(k))
}
