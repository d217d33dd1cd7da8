// Package pipeline orchestrates crawl, enrichment and session persistence.
package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/cache"
	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/metrics"
	"github.com/designsnack/leadharvest/internal/session"
)

// Crawler walks listing pages for a term.
type Crawler interface {
	Crawl(ctx context.Context, term string) ([]leads.JobRecord, int, error)
}

// Pipeline wires the crawl and enrichment stages together.
type Pipeline struct {
	crawler    Crawler
	resolver   leads.DomainResolver
	discoverer leads.ContactDiscoverer
	cache      *cache.Cache
	sessions   leads.SessionStore
	clock      leads.Clock
	workers    int
	logger     *zap.Logger
}

// New constructs a Pipeline. Workers below 1 is clamped to 1.
func New(crawler Crawler, resolver leads.DomainResolver, discoverer leads.ContactDiscoverer,
	contactCache *cache.Cache, sessions leads.SessionStore, clock leads.Clock,
	workers int, logger *zap.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		crawler:    crawler,
		resolver:   resolver,
		discoverer: discoverer,
		cache:      contactCache,
		sessions:   sessions,
		clock:      clock,
		workers:    workers,
		logger:     logger,
	}
}

// Run crawls the term and persists the resulting session. A session is
// returned even when the crawl was cut short; persistence failures are
// logged, not raised, so the caller still gets the records.
func (p *Pipeline) Run(ctx context.Context, term string) (leads.SearchSession, error) {
	start := p.clock.Now()
	records, pages, crawlErr := p.crawler.Crawl(ctx, term)
	end := p.clock.Now()

	sess := leads.SearchSession{
		ID:           session.NewID(term, start),
		SearchTerm:   term,
		Timestamp:    start,
		TotalResults: len(records),
		Jobs:         records,
		Metadata: leads.SessionMetadata{
			SearchDurationMs: end.Sub(start).Milliseconds(),
			HotnessStats:     session.HotnessStats(records),
		},
	}
	p.logger.Info("crawl finished",
		zap.String("session", sess.ID),
		zap.Int("pages", pages),
		zap.Int("records", len(records)))

	if err := p.sessions.Save(ctx, sess); err != nil {
		p.logger.Error("session save failed", zap.String("session", sess.ID), zap.Error(err))
	} else {
		metrics.SessionsSaved.Inc()
	}
	return sess, crawlErr
}

// Enrich resolves a company's domain and produces its ranked contact list,
// serving from the cache when a fresh entry exists. A cache hit makes no
// external calls at all.
func (p *Pipeline) Enrich(ctx context.Context, company, jobTitle, searchTerm string) leads.Enrichment {
	timer := p.clock.Now()
	defer func() {
		metrics.EnrichmentDuration.Observe(p.clock.Now().Sub(timer).Seconds())
	}()

	enrichment := leads.Enrichment{
		Company:    company,
		JobTitle:   jobTitle,
		SearchTerm: searchTerm,
	}
	if company == "" {
		enrichment.ContactResult = leads.ContactResult{
			Confidence: "unknown",
			Error:      "no company name",
		}
		return enrichment
	}

	domain := p.resolver.Resolve(ctx, company)

	unlock := p.cache.Lock(company, domain)
	defer unlock()

	if result, ok := p.cache.Get(ctx, company, domain); ok {
		metrics.CacheHits.Inc()
		enrichment.ContactResult = result
		enrichment.Cached = true
		return enrichment
	}
	metrics.CacheMisses.Inc()

	roleHint := jobTitle
	if roleHint == "" {
		roleHint = searchTerm
	}
	result := p.discoverer.Discover(ctx, domain, roleHint)
	if len(result.Contacts) > 0 {
		if _, err := p.cache.Put(ctx, company, domain, searchTerm, result); err != nil {
			p.logger.Warn("enrichment cache write failed",
				zap.String("company", company), zap.Error(err))
		}
	}
	enrichment.ContactResult = result
	return enrichment
}

// EnrichAll enriches every job over a bounded worker pool, preserving input
// order in the output.
func (p *Pipeline) EnrichAll(ctx context.Context, jobs []leads.JobRecord, searchTerm string) []leads.Enrichment {
	results := make([]leads.Enrichment, len(jobs))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = p.Enrich(ctx, jobs[i].Company, jobs[i].Title, searchTerm)
		}(i)
	}
	wg.Wait()
	return results
}
