// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Renderer RendererConfig `mapstructure:"renderer"`
	Search   SearchConfig   `mapstructure:"search"`
	Contacts ContactsConfig `mapstructure:"contacts"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Outreach OutreachConfig `mapstructure:"outreach"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ScraperConfig governs the listings crawl.
type ScraperConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	DetailPath       string `mapstructure:"detail_path"`
	MaxPagesDefault  int    `mapstructure:"max_pages_default"`
	PageDelaySeconds int    `mapstructure:"page_delay_seconds"`
	EnrichWorkers    int    `mapstructure:"enrich_workers"`
	UserAgent        string `mapstructure:"user_agent"`
}

// RendererConfig configures the headless rendering subsystem.
type RendererConfig struct {
	NavTimeoutSec     int     `mapstructure:"nav_timeout_seconds"`
	SettleMillis      int     `mapstructure:"settle_millis"`
	DomainQPS         float64 `mapstructure:"domain_qps"`
	SnapshotsEnabled  bool    `mapstructure:"snapshots_enabled"`
	SnapshotDirectory string  `mapstructure:"snapshot_dir"`
}

// SearchConfig configures the domain-lookup search API.
type SearchConfig struct {
	APIKey         string `mapstructure:"api_key"`
	EngineID       string `mapstructure:"engine_id"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ContactsConfig configures the contact enrichment provider.
type ContactsConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Limit          int    `mapstructure:"limit"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CacheConfig controls enrichment cache persistence.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"` // file | redis
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	TTLDays       int    `mapstructure:"ttl_days"`
	MaxEntries    int    `mapstructure:"max_entries"`
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// SessionsConfig controls search session persistence.
type SessionsConfig struct {
	Backend    string `mapstructure:"backend"` // file | postgres
	Dir        string `mapstructure:"dir"`
	DSN        string `mapstructure:"dsn"`
	MaxHistory int    `mapstructure:"max_history"`
}

// OutreachConfig configures outreach email drafting.
type OutreachConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.timeout_seconds", 300)
	v.SetDefault("scraper.base_url", "https://www.jobs.ch/en/vacancies/")
	v.SetDefault("scraper.detail_path", "/vacancies/detail/")
	v.SetDefault("scraper.max_pages_default", 10)
	v.SetDefault("scraper.page_delay_seconds", 2)
	v.SetDefault("scraper.enrich_workers", 4)
	v.SetDefault("scraper.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("renderer.nav_timeout_seconds", 30)
	v.SetDefault("renderer.settle_millis", 2000)
	v.SetDefault("renderer.domain_qps", 0.5)
	v.SetDefault("renderer.snapshots_enabled", false)
	v.SetDefault("renderer.snapshot_dir", "data/snapshots")
	v.SetDefault("search.timeout_seconds", 10)
	v.SetDefault("contacts.base_url", "https://api.hunter.io/v2")
	v.SetDefault("contacts.limit", 10)
	v.SetDefault("contacts.timeout_seconds", 15)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.dir", "data/contacts")
	v.SetDefault("cache.ttl_days", 7)
	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("cache.sweep_schedule", "0 3 * * *")
	v.SetDefault("sessions.backend", "file")
	v.SetDefault("sessions.dir", "data/searches")
	v.SetDefault("sessions.max_history", 50)
	v.SetDefault("outreach.model", "gpt-4o-mini")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.MaxPagesDefault <= 0 {
		return fmt.Errorf("scraper.max_pages_default must be > 0")
	}
	if c.Scraper.EnrichWorkers <= 0 {
		return fmt.Errorf("scraper.enrich_workers must be > 0")
	}
	if c.Renderer.NavTimeoutSec <= 0 {
		return fmt.Errorf("renderer.nav_timeout_seconds must be > 0")
	}
	if c.Cache.TTLDays <= 0 {
		return fmt.Errorf("cache.ttl_days must be > 0")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be > 0")
	}
	switch c.Cache.Backend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
	switch c.Sessions.Backend {
	case "file", "postgres", "memory":
	default:
		return fmt.Errorf("unknown sessions backend: %s", c.Sessions.Backend)
	}
	return nil
}

// NavTimeout returns the renderer navigation timeout as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Renderer.NavTimeoutSec) * time.Second
}

// CacheTTL returns the enrichment cache validity window.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLDays) * 24 * time.Hour
}
