package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit:    50,
			RateBurst:    100,
		},
		PokeAPI: PokeAPIConfig{
			BaseURL:          "https://pokeapi.co/api/v2",
			Timeout:          10 * time.Second,
			RequestsPerSec:   20,
			Burst:            20,
			BatchConcurrency: 8,
		},
		Cache: CacheConfig{
			Persist:        true,
			DataPath:       "/var/lib/pokedex",
			Name:           "bmad-pokedex-cache",
			Version:        "v1",
			VolatileStale:  5 * time.Minute,
			ReferenceStale: 10 * time.Minute,
			Evict:          24 * time.Hour,
		},
		Browse: BrowseConfig{PageSize: 20, SessionTTL: 30 * time.Minute},
		Search: SearchConfig{Debounce: 300 * time.Millisecond, Limit: 10},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown environment", func(c *Config) { c.App.Environment = "test" }},
		{"uppercase environment", func(c *Config) { c.App.Environment = "DEVELOPMENT" }},
		{"unknown log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"non-numeric port", func(c *Config) { c.Server.Port = "http" }},
		{"relative base url", func(c *Config) { c.PokeAPI.BaseURL = "pokeapi" }},
		{"zero burst", func(c *Config) { c.PokeAPI.Burst = 0 }},
		{"negative rps", func(c *Config) { c.PokeAPI.RequestsPerSec = -1 }},
		{"zero page size", func(c *Config) { c.Browse.PageSize = 0 }},
		{"evict before stale", func(c *Config) { c.Cache.Evict = time.Minute }},
		{"empty cache version", func(c *Config) { c.Cache.Version = "" }},
		{"persist without data path", func(c *Config) { c.Cache.DataPath = "" }},
		{"zero search limit", func(c *Config) { c.Search.Limit = 0 }},
		{"negative inbound rate", func(c *Config) { c.Server.RateLimit = -5 }},
		{"zero inbound burst", func(c *Config) { c.Server.RateBurst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DataPathOptionalWithoutPersistence(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Persist = false
	cfg.Cache.DataPath = ""

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.InDelta(t, 50.0, cfg.Server.RateLimit, 0)
	assert.Equal(t, 100, cfg.Server.RateBurst)
	assert.Equal(t, "https://pokeapi.co/api/v2", cfg.PokeAPI.BaseURL)
	assert.Equal(t, 8, cfg.PokeAPI.BatchConcurrency)
	assert.Equal(t, "bmad-pokedex-cache", cfg.Cache.Name)
	assert.Equal(t, "v1", cfg.Cache.Version)
	assert.Equal(t, 5*time.Minute, cfg.Cache.VolatileStale)
	assert.Equal(t, 10*time.Minute, cfg.Cache.ReferenceStale)
	assert.Equal(t, 24*time.Hour, cfg.Cache.Evict)
	assert.Equal(t, 20, cfg.Browse.PageSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 10, cfg.Search.Limit)
	assert.True(t, filepath.IsAbs(cfg.Cache.DataPath))
	assert.Equal(t, filepath.Join(cfg.Cache.DataPath, "cache"), cfg.CacheDir())
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("BROWSE_PAGE_SIZE", "30")
	t.Setenv("POKEAPI_URL", "http://localhost:1234/api/v2/")

	cfg, err := LoadConfig([]string{"-port", "9100", "-data-path", t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Browse.PageSize)
	assert.Equal(t, "http://localhost:1234/api/v2", cfg.PokeAPI.BaseURL, "trailing slash trimmed")
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	envPath := filepath.Join(dir, "custom.env")
	content := "# comment\nCACHE_VERSION=\"v2\"\nSEARCH_LIMIT=5\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CACHE_VERSION")
		os.Unsetenv("SEARCH_LIMIT")
	})

	cfg, err := LoadConfig([]string{"-env-file", envPath, "-data-path", dir})
	require.NoError(t, err)

	assert.Equal(t, "v2", cfg.Cache.Version)
	assert.Equal(t, 5, cfg.Search.Limit)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig([]string{"-read-timeout", "soon", "-data-path", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
}

func TestLoadConfig_RateLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_RATE_LIMIT", "0")

	cfg, err := LoadConfig([]string{"-rate-burst", "7", "-data-path", t.TempDir()})
	require.NoError(t, err)
	assert.Zero(t, cfg.Server.RateLimit, "zero disables the limiter")
	assert.Equal(t, 7, cfg.Server.RateBurst)

	t.Setenv("SERVER_RATE_LIMIT", "lots")
	_, err = LoadConfig([]string{"-data-path", t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_RATE_LIMIT")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	_, err := LoadConfig([]string{"-no-such-flag"})
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/pokedex", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "pokedex"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Nil(t, splitList(""))
}
