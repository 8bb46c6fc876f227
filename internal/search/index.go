// Package search indexes entity names and answers substring/id queries.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/jeduden/bmad-pokedex/internal/dex"
	"github.com/jeduden/bmad-pokedex/internal/pokeapi"
)

// DefaultLimit is the number of hits returned when no limit is given.
const DefaultLimit = 10

// Hit is one search result.
type Hit struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Lister pages through the upstream entity list.
type Lister interface {
	PokemonList(ctx context.Context, limit, offset int) (*pokeapi.ListPage, error)
}

// Index is an in-memory bleve index of entity names.
//
// All methods are safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
}

// NewIndex creates an empty in-memory index.
func NewIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: index, logger: logger}, nil
}

// Build fetches the full entity list from src and indexes it.
func Build(ctx context.Context, src Lister, logger *slog.Logger) (*Index, error) {
	page, err := src.PokemonList(ctx, dex.TotalPokemon, 0)
	if err != nil {
		return nil, err
	}

	ix, err := NewIndex(logger)
	if err != nil {
		return nil, err
	}
	if err := ix.Load(page.Items); err != nil {
		_ = ix.Close()
		return nil, err
	}

	ix.logger.Info("search index built", "documents", len(page.Items))
	return ix, nil
}

// Load indexes items in one batch. Items without a usable id are skipped.
func (ix *Index) Load(items []pokeapi.ListItem) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	batch := ix.index.NewBatch()
	for _, item := range items {
		if item.ID <= 0 || item.Name == "" {
			continue
		}
		doc := map[string]any{
			fieldName: strings.ToLower(item.Name),
			fieldID:   item.ID,
		}
		if err := batch.Index(docID(item.ID), doc); err != nil {
			return fmt.Errorf("batch index %d: %w", item.ID, err)
		}
	}

	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Count returns the number of indexed entities.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}

var wildcardStripper = strings.NewReplacer("*", "", "?", "")

// NormalizeTerm lower-cases and trims term and removes wildcard characters.
func NormalizeTerm(term string) string {
	return wildcardStripper.Replace(strings.ToLower(strings.TrimSpace(term)))
}

// Search returns up to limit entities whose name contains term or whose id
// is exactly term, in ascending id order. A blank term matches nothing.
func (ix *Index) Search(ctx context.Context, term string, limit int) ([]Hit, error) {
	term = NormalizeTerm(term)
	if term == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(term), limit, 0, false)
	req.SortBy([]string{"_id"})
	req.Fields = []string{fieldName}

	ix.mu.RLock()
	res, err := ix.index.SearchInContext(ctx, req)
	ix.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", term, err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, m := range res.Hits {
		id, err := strconv.Atoi(m.ID)
		if err != nil {
			continue
		}
		name, _ := m.Fields[fieldName].(string)
		hits = append(hits, Hit{ID: id, Name: name})
	}
	return hits, nil
}

func buildQuery(term string) query.Query {
	nameQuery := bleve.NewWildcardQuery("*" + term + "*")
	nameQuery.SetField(fieldName)

	// Only the canonical spelling of a number matches an id: "25", not "025".
	if n, err := strconv.Atoi(term); err == nil && n > 0 && strconv.Itoa(n) == term {
		return bleve.NewDisjunctionQuery(nameQuery, bleve.NewDocIDQuery([]string{docID(n)}))
	}
	return nameQuery
}
