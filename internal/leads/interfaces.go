package leads

import (
	"context"
	"time"
)

// Renderer is the exclusive browser context used to render listings pages.
// A Renderer must not be shared across concurrent pipeline runs.
type Renderer interface {
	// Navigate loads the URL and returns the settled page HTML after
	// transient overlays have been dismissed.
	Navigate(ctx context.Context, url string) (string, error)
	// HasNextLink reports whether the current page exposes a "next"
	// pagination affordance.
	HasNextLink(ctx context.Context) (bool, error)
	Close(ctx context.Context) error
}

// SearchClient performs a web search and returns ranked result links.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]ResultLink, error)
}

// ContactProvider looks up raw staff contacts for a domain.
type ContactProvider interface {
	DomainSearch(ctx context.Context, domain string) ([]ProviderRecord, int, error)
}

// CacheStore is the key-value persistence behind the enrichment cache.
type CacheStore interface {
	Get(ctx context.Context, key string) (CacheEntry, bool, error)
	Put(ctx context.Context, key string, entry CacheEntry) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// SessionStore persists completed search sessions and their history index.
type SessionStore interface {
	Save(ctx context.Context, session SearchSession) error
	Get(ctx context.Context, id string) (SearchSession, error)
	History(ctx context.Context) ([]SessionSummary, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Extractor converts one rendered page into structured job records.
type Extractor interface {
	Extract(page RawPage) []JobRecord
}

// DomainResolver maps a company name to its most likely web domain.
type DomainResolver interface {
	Resolve(ctx context.Context, company string) string
}

// ContactDiscoverer maps a domain to a ranked, filtered contact list.
type ContactDiscoverer interface {
	Discover(ctx context.Context, domain, roleHint string) ContactResult
}
