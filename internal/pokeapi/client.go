// Package pokeapi is a cached, rate-limited, read-only client for the PokeAPI.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeduden/bmad-pokedex/internal/cache"
	"github.com/jeduden/bmad-pokedex/internal/errors"
	"github.com/jeduden/bmad-pokedex/internal/ratelimit"
)

const (
	// DefaultBaseURL is the public PokeAPI endpoint.
	DefaultBaseURL = "https://pokeapi.co/api/v2"

	defaultRPS              = 20.0
	defaultBurst            = 20
	defaultTimeout          = 10 * time.Second
	defaultBatchConcurrency = 8

	userAgent = "bmad-pokedex/1.0"
)

// Resource kinds; each gets its own rate limit bucket.
const (
	kindPokemon        = "pokemon"
	kindPokemonList    = "pokemon-list"
	kindType           = "type"
	kindSpecies        = "pokemon-species"
	kindEvolutionChain = "evolution-chain"
)

// Policies selects the cache policy for each family of reads.
type Policies struct {
	// Volatile covers entity detail and list pages.
	Volatile cache.Policy
	// Reference covers type tables, species and evolution chains.
	Reference cache.Policy
}

// Options configures a Client.
type Options struct {
	BaseURL          string
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
	BatchConcurrency int
	// Cache stores raw response bodies. Nil disables caching.
	Cache    *cache.Cache
	Policies Policies
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a rate-limited PokeAPI client backed by the response cache.
type Client struct {
	baseURL          string
	http             *http.Client
	limiter          *ratelimit.KeyedRateLimiter
	cache            *cache.Cache
	policies         Policies
	batchConcurrency int
	logger           *slog.Logger
}

// New creates a new PokeAPI client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RequestsPerSec == 0 && opts.Burst == 0 {
		opts.RequestsPerSec, opts.Burst = defaultRPS, defaultBurst
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = defaultBatchConcurrency
	}
	if opts.Policies.Volatile == (cache.Policy{}) {
		opts.Policies.Volatile = cache.Volatile
	}
	if opts.Policies.Reference == (cache.Policy{}) {
		opts.Policies.Reference = cache.Reference
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		http:             opts.HTTPClient,
		limiter:          ratelimit.New(opts.RequestsPerSec, opts.Burst),
		cache:            opts.Cache,
		policies:         opts.Policies,
		batchConcurrency: opts.BatchConcurrency,
		logger:           opts.Logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// fetch returns the body for path, going through the cache when one is
// configured. check runs before a body is stored so that malformed
// responses are never cached.
func (c *Client) fetch(ctx context.Context, kind string, key cache.Key, policy cache.Policy, path string, query url.Values, check func([]byte) error) ([]byte, error) {
	load := func(ctx context.Context) ([]byte, error) {
		body, err := c.doRequest(ctx, kind, path, query)
		if err != nil {
			return nil, err
		}
		if err := check(body); err != nil {
			return nil, err
		}
		return body, nil
	}

	if c.cache == nil {
		return load(ctx)
	}
	return c.cache.Fetch(ctx, key, policy, load)
}

// doRequest executes a GET with rate limiting and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, kind, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, kind); err != nil {
		return nil, errors.Network(fmt.Errorf("rate limit wait: %w", err))
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("pokeapi request", "kind", kind, "path", path, "query", query.Encode())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Network(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFoundf("%s not found", strings.TrimPrefix(path, "/"))
	default:
		c.logger.Warn("pokeapi unexpected status", "path", path, "status", resp.StatusCode)
		return nil, errors.Transport(resp.StatusCode, resp.Status)
	}
}

// decode unmarshals body into a fresh R and runs valid on it.
func decode[R any](body []byte, valid func(*R) error) (*R, error) {
	var r R
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, errors.Decode(err)
	}
	if err := valid(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

// checker adapts a decode validation into the check func used by fetch.
func checker[R any](valid func(*R) error) func([]byte) error {
	return func(body []byte) error {
		_, err := decode(body, valid)
		return err
	}
}

// get fetches path and decodes it into R.
func get[R any](ctx context.Context, c *Client, kind string, key cache.Key, policy cache.Policy, path string, query url.Values, valid func(*R) error) (*R, error) {
	body, err := c.fetch(ctx, kind, key, policy, path, query, checker(valid))
	if err != nil {
		return nil, err
	}
	return decode(body, valid)
}
