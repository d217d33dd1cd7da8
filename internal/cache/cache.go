// Package cache implements the TTL-bounded enrichment result cache.
package cache

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// Key derives the deterministic cache key for a company/domain pair. An
// absent domain normalizes to the empty string.
func Key(company, domain string) string {
	return normalize(company) + "_" + normalize(domain)
}

func normalize(s string) string {
	return nonAlnumRe.ReplaceAllString(strings.ToLower(s), "")
}

// Cache stores enrichment results with a fixed TTL and a bounded
// most-recently-put index. Store failures degrade to cache misses; they are
// logged, never raised.
type Cache struct {
	store      leads.CacheStore
	clock      leads.Clock
	ttl        time.Duration
	maxEntries int
	logger     *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New constructs a Cache over the given store.
func New(store leads.CacheStore, clock leads.Clock, ttl time.Duration, maxEntries int, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:      store,
		clock:      clock,
		ttl:        ttl,
		maxEntries: maxEntries,
		logger:     logger,
		locks:      make(map[string]*sync.Mutex),
	}
}

// Lock serializes read-then-write sequences for one key. Two concurrent
// misses for the same company must not both call the external provider. The
// returned function releases the key.
func (c *Cache) Lock(company, domain string) func() {
	key := Key(company, domain)
	c.mu.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Get returns the cached result for the pair, or absent. An entry read past
// its expiry is deleted as a side effect and reported absent.
func (c *Cache) Get(ctx context.Context, company, domain string) (leads.ContactResult, bool) {
	key := Key(company, domain)
	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		return leads.ContactResult{}, false
	}
	if !ok {
		return leads.ContactResult{}, false
	}
	if entry.Expired(c.clock.Now()) {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("expired cache entry delete failed",
				zap.String("key", key), zap.Error(err))
		}
		return leads.ContactResult{}, false
	}
	return entry.ContactResults, true
}

// Put stores a result under the pair's key, superseding any prior entry, and
// trims the index to the configured capacity. Returns the cache key.
func (c *Cache) Put(ctx context.Context, company, domain, searchTerm string, result leads.ContactResult) (string, error) {
	key := Key(company, domain)
	now := c.clock.Now()
	entry := leads.CacheEntry{
		CacheKey:       key,
		Company:        company,
		Domain:         domain,
		SearchTerm:     searchTerm,
		Timestamp:      now,
		ExpiresAt:      now.Add(c.ttl),
		ContactResults: result,
	}

	// Supersede: the old entry is removed before the new one is appended so
	// the index never holds two entries for one key.
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache supersede delete failed",
			zap.String("key", key), zap.Error(err))
	}
	if err := c.store.Put(ctx, key, entry); err != nil {
		return "", fmt.Errorf("cache put: %w", err)
	}

	if err := c.trim(ctx); err != nil {
		c.logger.Warn("cache index trim failed", zap.Error(err))
	}
	return key, nil
}

func (c *Cache) trim(ctx context.Context) error {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys[min(len(keys), c.maxEntries):] {
		if err := c.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Sweep removes every expired entry and returns how many were deleted. Get
// already expires lazily; Sweep exists for periodic cleanup.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("cache sweep: %w", err)
	}
	now := c.clock.Now()
	removed := 0
	for _, key := range keys {
		entry, ok, err := c.store.Get(ctx, key)
		if err != nil {
			// Corrupted entries are removed like expired ones.
			c.logger.Warn("sweep found unreadable entry, deleting",
				zap.String("key", key), zap.Error(err))
		} else if ok && !entry.Expired(now) {
			continue
		} else if !ok {
			continue
		}
		if err := c.store.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("cache sweep delete %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}
