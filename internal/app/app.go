// Package app assembles the service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/cache"
	"github.com/designsnack/leadharvest/internal/clock/system"
	"github.com/designsnack/leadharvest/internal/config"
	"github.com/designsnack/leadharvest/internal/contacts"
	"github.com/designsnack/leadharvest/internal/crawl"
	"github.com/designsnack/leadharvest/internal/domain"
	"github.com/designsnack/leadharvest/internal/extract"
	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/logging"
	"github.com/designsnack/leadharvest/internal/outreach"
	"github.com/designsnack/leadharvest/internal/pipeline"
	"github.com/designsnack/leadharvest/internal/renderer"
	"github.com/designsnack/leadharvest/internal/search"
	"github.com/designsnack/leadharvest/internal/session"
)

// App holds the long-lived service components.
type App struct {
	Cfg        config.Config
	Logger     *zap.Logger
	Clock      leads.Clock
	Cache      *cache.Cache
	Sessions   leads.SessionStore
	Resolver   leads.DomainResolver
	Discoverer leads.ContactDiscoverer
	Drafter    *outreach.Drafter

	closers []func()
}

// New loads configuration and builds every component that does not need a
// browser. The renderer is created per crawl; see NewPipeline.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}

	a := &App{
		Cfg:    cfg,
		Logger: logger,
		Clock:  system.New(),
	}

	store, err := a.newCacheStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Cache = cache.New(store, a.Clock, cfg.CacheTTL(), cfg.Cache.MaxEntries, logger.Named("cache"))

	if a.Sessions, err = a.newSessionStore(ctx); err != nil {
		return nil, err
	}

	var searchClient leads.SearchClient
	if cfg.Search.APIKey != "" && cfg.Search.EngineID != "" {
		searchClient = search.NewGoogleClient(cfg.Search.APIKey, cfg.Search.EngineID,
			time.Duration(cfg.Search.TimeoutSeconds)*time.Second, logger.Named("search"))
	} else {
		logger.Warn("search api not configured, domain resolution will rely on name guessing")
	}
	a.Resolver = domain.NewResolver(searchClient, logger.Named("domain"))

	provider := contacts.NewHunterClient(contacts.HunterConfig{
		BaseURL: cfg.Contacts.BaseURL,
		APIKey:  cfg.Contacts.APIKey,
		Limit:   cfg.Contacts.Limit,
		Timeout: time.Duration(cfg.Contacts.TimeoutSeconds) * time.Second,
	}, logger.Named("hunter"))
	a.Discoverer = contacts.NewDiscoverer(provider, logger.Named("contacts"))

	if cfg.Outreach.APIKey != "" {
		a.Drafter, err = outreach.New(outreach.Config{
			APIKey: cfg.Outreach.APIKey,
			Model:  cfg.Outreach.Model,
		}, a.Clock, logger.Named("outreach"))
		if err != nil {
			return nil, err
		}
	}

	return a, nil
}

// NewPipeline launches a browser and wires a pipeline around it. The caller
// owns the returned renderer and must close it when the run is over.
func (a *App) NewPipeline() (*pipeline.Pipeline, *renderer.Chromedp, error) {
	rend, err := renderer.New(renderer.Config{
		UserAgent:        a.Cfg.Scraper.UserAgent,
		NavTimeout:       a.Cfg.NavTimeout(),
		Settle:           time.Duration(a.Cfg.Renderer.SettleMillis) * time.Millisecond,
		DomainQPS:        a.Cfg.Renderer.DomainQPS,
		SnapshotsEnabled: a.Cfg.Renderer.SnapshotsEnabled,
		SnapshotDir:      a.Cfg.Renderer.SnapshotDirectory,
	}, a.Logger.Named("renderer"))
	if err != nil {
		return nil, nil, fmt.Errorf("renderer init: %w", err)
	}

	extractor := extract.New(a.Cfg.Scraper.DetailPath, a.Logger.Named("extract"))
	crawler := crawl.New(rend, extractor, a.Clock, crawl.Config{
		BaseURL:   a.Cfg.Scraper.BaseURL,
		MaxPages:  a.Cfg.Scraper.MaxPagesDefault,
		PageDelay: time.Duration(a.Cfg.Scraper.PageDelaySeconds) * time.Second,
	}, a.Logger.Named("crawl"))

	fetcher, err := crawl.NewCollyFetcher(crawl.FetchConfig{
		UserAgent:      a.Cfg.Scraper.UserAgent,
		RequestTimeout: a.Cfg.NavTimeout(),
		Concurrency:    2,
		DomainQPS:      1,
	}, a.Logger.Named("fetch"))
	if err != nil {
		a.Logger.Warn("detail fetcher init failed, descriptions stay listing-only", zap.Error(err))
	} else {
		crawler.WithDetailFetcher(fetcher)
	}

	p := pipeline.New(crawler, a.Resolver, a.Discoverer, a.Cache, a.Sessions,
		a.Clock, a.Cfg.Scraper.EnrichWorkers, a.Logger.Named("pipeline"))
	return p, rend, nil
}

// NewEnricher returns a pipeline limited to enrichment. It needs no browser;
// resolution and discovery are plain HTTP.
func (a *App) NewEnricher() *pipeline.Pipeline {
	return pipeline.New(nil, a.Resolver, a.Discoverer, a.Cache, a.Sessions,
		a.Clock, a.Cfg.Scraper.EnrichWorkers, a.Logger.Named("enrich"))
}

func (a *App) newCacheStore(ctx context.Context) (leads.CacheStore, error) {
	switch a.Cfg.Cache.Backend {
	case "file":
		store, err := cache.NewFileStore(a.Cfg.Cache.Dir)
		if err != nil {
			return nil, fmt.Errorf("cache store init: %w", err)
		}
		return store, nil
	case "redis":
		store, err := cache.NewRedisStore(ctx, a.Cfg.Cache.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("cache store init: %w", err)
		}
		return store, nil
	case "memory":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", a.Cfg.Cache.Backend)
	}
}

func (a *App) newSessionStore(ctx context.Context) (leads.SessionStore, error) {
	switch a.Cfg.Sessions.Backend {
	case "file":
		store, err := session.NewFileStore(a.Cfg.Sessions.Dir, a.Cfg.Sessions.MaxHistory)
		if err != nil {
			return nil, fmt.Errorf("session store init: %w", err)
		}
		return store, nil
	case "postgres":
		store, err := session.NewPostgresStore(ctx, session.PostgresStoreConfig{
			DSN:        a.Cfg.Sessions.DSN,
			MaxHistory: a.Cfg.Sessions.MaxHistory,
		})
		if err != nil {
			return nil, fmt.Errorf("session store init: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case "memory":
		return session.NewMemoryStore(a.Cfg.Sessions.MaxHistory), nil
	default:
		return nil, fmt.Errorf("unknown sessions backend: %s", a.Cfg.Sessions.Backend)
	}
}

// Close releases pooled resources and flushes the logger.
func (a *App) Close() {
	for _, closeFn := range a.closers {
		closeFn()
	}
	_ = a.Logger.Sync()
}
