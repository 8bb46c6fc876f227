// Package config loads service configuration from command-line flags,
// environment variables, a .env file and defaults, in that order of precedence.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	PokeAPI PokeAPIConfig
	Cache   CacheConfig
	Browse  BrowseConfig
	Search  SearchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `validate:"oneof=development staging production"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `validate:"oneof=debug info warn error"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string        `validate:"required,numeric"`
	ReadTimeout    time.Duration `validate:"gt=0"`
	WriteTimeout   time.Duration `validate:"gt=0"`
	IdleTimeout    time.Duration `validate:"gt=0"`
	AllowedOrigins []string
	// RateLimit is inbound requests per second per client IP; 0 disables it.
	RateLimit float64 `validate:"gte=0"`
	RateBurst int     `validate:"gte=1"`
}

// PokeAPIConfig holds upstream client configuration.
type PokeAPIConfig struct {
	BaseURL          string        `validate:"required,url"`
	Timeout          time.Duration `validate:"gt=0"`
	RequestsPerSec   float64       `validate:"gte=0"`
	Burst            int           `validate:"gte=1"`
	BatchConcurrency int           `validate:"gte=1,lte=64"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	// Persist keeps entries in a badger store under DataPath between runs.
	Persist        bool
	DataPath       string
	Name           string        `validate:"required"`
	Version        string        `validate:"required"`
	VolatileStale  time.Duration `validate:"gt=0"`
	ReferenceStale time.Duration `validate:"gt=0"`
	Evict          time.Duration `validate:"gtfield=ReferenceStale,gtfield=VolatileStale"`
	WarmTypes      bool
}

// BrowseConfig holds browse grid configuration.
type BrowseConfig struct {
	PageSize   int           `validate:"gte=1,lte=100"`
	SessionTTL time.Duration `validate:"gt=0"`
}

// SearchConfig holds name search configuration.
type SearchConfig struct {
	Debounce time.Duration `validate:"gte=0"`
	Limit    int           `validate:"gte=1,lte=50"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from args (typically os.Args[1:]) with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("pokedex", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma-separated CORS origins (default: *)")
	rateLimit := fs.String("rate-limit", "", "Inbound requests per second per client, 0 disables (default: 50)")
	rateBurst := fs.String("rate-burst", "", "Inbound burst per client (default: 100)")

	baseURL := fs.String("pokeapi-url", "", "PokeAPI base URL (default: https://pokeapi.co/api/v2)")
	apiTimeout := fs.String("pokeapi-timeout", "", "Upstream request timeout (default: 10s)")
	apiRPS := fs.String("pokeapi-rps", "", "Upstream requests per second per resource kind (default: 20)")
	apiBurst := fs.String("pokeapi-burst", "", "Upstream burst size (default: 20)")
	batchConcurrency := fs.String("batch-concurrency", "", "Concurrent fetches per browse page (default: 8)")

	cachePersist := fs.String("cache-persist", "", "Persist cache entries to disk (default: true)")
	dataPath := fs.String("data-path", "", "Directory for persisted data (default: ~/.bmad-pokedex)")
	cacheVersion := fs.String("cache-version", "", "Cache version tag; changing it discards persisted entries (default: v1)")
	warmTypes := fs.String("warm-types", "", "Prefetch type tables at startup (default: true)")

	pageSize := fs.String("page-size", "", "Browse page size (default: 20)")
	sessionTTL := fs.String("session-ttl", "", "Idle lifetime of browse sessions (default: 30m)")
	searchDebounce := fs.String("search-debounce", "", "Live search quiet period (default: 300ms)")
	searchLimit := fs.String("search-limit", "", "Maximum search results (default: 10)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", "*")),
			RateBurst:      getIntConfigValue(*rateBurst, "SERVER_RATE_BURST", 100),
		},
		PokeAPI: PokeAPIConfig{
			BaseURL:          strings.TrimRight(getConfigValue(*baseURL, "POKEAPI_URL", "https://pokeapi.co/api/v2"), "/"),
			Burst:            getIntConfigValue(*apiBurst, "POKEAPI_BURST", 20),
			BatchConcurrency: getIntConfigValue(*batchConcurrency, "BATCH_CONCURRENCY", 8),
		},
		Cache: CacheConfig{
			Persist:   getBoolConfigValue(*cachePersist, "CACHE_PERSIST", true),
			DataPath:  getConfigValue(*dataPath, "DATA_PATH", ""),
			Name:      "bmad-pokedex-cache",
			Version:   getConfigValue(*cacheVersion, "CACHE_VERSION", "v1"),
			WarmTypes: getBoolConfigValue(*warmTypes, "WARM_TYPES", true),
		},
		Browse: BrowseConfig{
			PageSize: getIntConfigValue(*pageSize, "BROWSE_PAGE_SIZE", 20),
		},
		Search: SearchConfig{
			Limit: getIntConfigValue(*searchLimit, "SEARCH_LIMIT", 10),
		},
	}

	rps, err := getFloatConfigValue(*apiRPS, "POKEAPI_RPS", 20)
	if err != nil {
		return nil, err
	}
	cfg.PokeAPI.RequestsPerSec = rps

	inbound, err := getFloatConfigValue(*rateLimit, "SERVER_RATE_LIMIT", 50)
	if err != nil {
		return nil, err
	}
	cfg.Server.RateLimit = inbound

	durations := []struct {
		target   *time.Duration
		flag     string
		envKey   string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.PokeAPI.Timeout, *apiTimeout, "POKEAPI_TIMEOUT", "10s"},
		{&cfg.Cache.VolatileStale, "", "CACHE_VOLATILE_STALE", "5m"},
		{&cfg.Cache.ReferenceStale, "", "CACHE_REFERENCE_STALE", "10m"},
		{&cfg.Cache.Evict, "", "CACHE_EVICT", "24h"},
		{&cfg.Browse.SessionTTL, *sessionTTL, "BROWSE_SESSION_TTL", "30m"},
		{&cfg.Search.Debounce, *searchDebounce, "SEARCH_DEBOUNCE", "300ms"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.envKey, raw, err)
		}
		*d.target = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all config values are present and within range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	if c.Cache.Persist && c.Cache.DataPath == "" {
		return errors.New("data path cannot be empty when cache persistence is enabled")
	}

	return nil
}

// CacheDir is where the persisted cache lives.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Cache.DataPath, "cache")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	defaultPath := ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		defaultPath = filepath.Join(homeDir, ".bmad-pokedex")
	}

	expanded, err := expandPath(c.Cache.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Cache.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(strings.TrimSpace(strValue), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return result, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
