// Package store persists response cache entries in a Badger database.
//
// Keys are namespaced as "<name>:<version>:<cache key>". A meta key
// "<name>:meta:version" records the version tag the data was written with;
// opening with a different tag drops everything under "<name>:" first.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/jeduden/bmad-pokedex/internal/cache"
)

// Options configures a Store.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Name     string
	Version  string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Store wraps a Badger database instance and implements cache.Persister.
type Store struct {
	db      *badger.DB
	logger  *slog.Logger
	name    string
	version string
	now     func() time.Time
}

var _ cache.Persister = (*Store)(nil)

// record is the persisted form of a cache entry.
type record struct {
	Value      []byte    `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	StaleAfter time.Time `json:"stale_after"`
	EvictAfter time.Time `json:"evict_after"`
}

// Open opens (or creates) the store and applies the version check.
func Open(opts Options) (*Store, error) {
	if opts.Name == "" || opts.Version == "" {
		return nil, errors.New("store name and version are required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:      db,
		logger:  opts.Logger,
		name:    opts.Name,
		version: opts.Version,
		now:     opts.Now,
	}

	if err := s.checkVersion(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info("cache store opened", "path", opts.Path, "in_memory", opts.InMemory, "version", opts.Version)
	return s, nil
}

// checkVersion drops all data written under another version tag.
func (s *Store) checkVersion() error {
	metaKey := buildKey(s.name, "meta", "version")
	defer releaseKey(metaKey)

	var stored string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			stored = string(val)
			return nil
		})
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return fmt.Errorf("read version tag: %w", err)
	case stored == s.version:
		return nil
	}

	if stored != "" {
		s.logger.Info("cache version changed, discarding persisted entries", "from", stored, "to", s.version)
	}

	if err := s.db.DropPrefix([]byte(s.name + ":")); err != nil {
		return fmt.Errorf("drop stale namespace: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey, []byte(s.version))
	})
}

func (s *Store) prefix() []byte {
	return []byte(s.name + ":" + s.version + ":")
}

// LoadEntries returns every retained entry in the current namespace.
func (s *Store) LoadEntries() ([]cache.Entry, error) {
	prefix := s.prefix()
	var entries []cache.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := cache.Key(item.Key()[len(prefix):])

			var rec record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				s.logger.Warn("skipping unreadable cache entry", "key", key, "error", err)
				continue
			}

			entries = append(entries, cache.Entry{
				Key:        key,
				Value:      rec.Value,
				CreatedAt:  rec.CreatedAt,
				StaleAfter: rec.StaleAfter,
				EvictAfter: rec.EvictAfter,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return entries, nil
}

// SaveEntry writes e with a Badger TTL equal to its remaining retention.
// Entries already past eviction are not written.
func (s *Store) SaveEntry(e cache.Entry) error {
	ttl := e.EvictAfter.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(record{
		Value:      e.Value,
		CreatedAt:  e.CreatedAt,
		StaleAfter: e.StaleAfter,
		EvictAfter: e.EvictAfter,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	key := buildKey(s.name, s.version, string(e.Key))
	defer releaseKey(key)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, data).WithTTL(ttl))
	})
}

// DeleteEntry removes the entry for key. Missing keys are not an error.
func (s *Store) DeleteEntry(key cache.Key) error {
	k := buildKey(s.name, s.version, string(key))
	defer releaseKey(k)

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
}

// Version returns the version tag the store was opened with.
func (s *Store) Version() string {
	return s.version
}

// Close gracefully closes the database.
func (s *Store) Close() error {
	s.logger.Info("closing cache store")
	return s.db.Close()
}
