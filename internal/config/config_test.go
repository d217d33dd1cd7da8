package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 3001, cfg.Server.Port)
	require.Equal(t, "https://www.jobs.ch/en/vacancies/", cfg.Scraper.BaseURL)
	require.Equal(t, "/vacancies/detail/", cfg.Scraper.DetailPath)
	require.Equal(t, 10, cfg.Scraper.MaxPagesDefault)
	require.Equal(t, 4, cfg.Scraper.EnrichWorkers)
	require.Equal(t, "file", cfg.Cache.Backend)
	require.Equal(t, 7, cfg.Cache.TTLDays)
	require.Equal(t, 100, cfg.Cache.MaxEntries)
	require.Equal(t, "file", cfg.Sessions.Backend)
	require.Equal(t, 50, cfg.Sessions.MaxHistory)
	require.Equal(t, "gpt-4o-mini", cfg.Outreach.Model)

	require.Equal(t, 30*time.Second, cfg.NavTimeout())
	require.Equal(t, 7*24*time.Hour, cfg.CacheTTL())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
cache:
  backend: redis
  redis_addr: localhost:6379
  ttl_days: 3
sessions:
  backend: postgres
  dsn: postgres://localhost/leadharvest
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, 3, cfg.Cache.TTLDays)
	require.Equal(t, "postgres", cfg.Sessions.Backend)
	// Untouched sections keep their defaults.
	require.Equal(t, 10, cfg.Scraper.MaxPagesDefault)
}

func TestLoadRejectsBadBackends(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "badcache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: dynamo\n"), 0o600))
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown cache backend")

	path = filepath.Join(dir, "badsessions.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sessions:\n  backend: mongo\n"), 0o600))
	_, err = Load(path)
	require.ErrorContains(t, err, "unknown sessions backend")
}

func TestValidateBounds(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := cfg
	bad.Server.Port = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Cache.TTLDays = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Scraper.EnrichWorkers = 0
	require.Error(t, bad.Validate())
}
