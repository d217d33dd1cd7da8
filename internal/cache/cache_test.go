package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/designsnack/leadharvest/internal/leads"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(maxEntries int) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)}
	return New(NewMemoryStore(), clock, 7*24*time.Hour, maxEntries, nil), clock
}

func sampleResult(domain string) leads.ContactResult {
	return leads.ContactResult{
		Contacts: []leads.ContactRecord{
			{Email: "ceo@" + domain, Position: "CEO", Score: 8},
		},
		Domain:     domain,
		Confidence: "high",
		TotalFound: 1,
	}
}

func TestKeyDerivation(t *testing.T) {
	t.Parallel()

	if got := Key("Acme Design AG", "acme.ch"); got != "acmedesignag_acmech" {
		t.Fatalf("Key() = %q", got)
	}
	if got := Key("Acme", ""); got != "acme_" {
		t.Fatalf("Key() with absent domain = %q", got)
	}
}

func TestGetAfterPut(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(100)
	ctx := context.Background()
	if _, err := c.Put(ctx, "Acme AG", "acme.ch", "ux designer", sampleResult("acme.ch")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	result, ok := c.Get(ctx, "Acme AG", "acme.ch")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if result.Domain != "acme.ch" || len(result.Contacts) != 1 {
		t.Fatalf("unexpected cached result: %+v", result)
	}
}

func TestGetExpiredDeletesEntry(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(100)
	ctx := context.Background()
	if _, err := c.Put(ctx, "Acme AG", "acme.ch", "", sampleResult("acme.ch")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	clock.Advance(7*24*time.Hour + time.Minute)

	if _, ok := c.Get(ctx, "Acme AG", "acme.ch"); ok {
		t.Fatal("expected expired entry to be absent")
	}
	// Lazy delete happened; the second read must also be a clean miss.
	if _, ok := c.Get(ctx, "Acme AG", "acme.ch"); ok {
		t.Fatal("expected entry to stay absent after lazy delete")
	}
	keys, err := c.store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected empty index after lazy delete, got %v", keys)
	}
}

func TestPutSupersedesSameKey(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(100)
	ctx := context.Background()
	if _, err := c.Put(ctx, "Acme AG", "acme.ch", "", sampleResult("acme.ch")); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if _, err := c.Put(ctx, "Acme AG", "acme.ch", "", sampleResult("acme.ch")); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	keys, err := c.store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("index holds %d entries for one key, want 1", len(keys))
	}
}

func TestIndexBoundedAtCapacity(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		company := fmt.Sprintf("Company %d", i)
		if _, err := c.Put(ctx, company, "", "", sampleResult("x.ch")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	keys, err := c.store.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("index size = %d, want 3", len(keys))
	}
	// Oldest entries were silently dropped.
	if _, ok := c.Get(ctx, "Company 0", ""); ok {
		t.Fatal("expected oldest entry to be evicted")
	}
	if _, ok := c.Get(ctx, "Company 4", ""); !ok {
		t.Fatal("expected newest entry to survive")
	}
}

func TestSweepRemovesExpiredOnly(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(100)
	ctx := context.Background()
	if _, err := c.Put(ctx, "Old Co", "old.ch", "", sampleResult("old.ch")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	clock.Advance(8 * 24 * time.Hour)
	if _, err := c.Put(ctx, "Fresh Co", "fresh.ch", "", sampleResult("fresh.ch")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	removed, err := c.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("Sweep() removed %d, want 1", removed)
	}
	if _, ok := c.Get(ctx, "Fresh Co", "fresh.ch"); !ok {
		t.Fatal("fresh entry must survive the sweep")
	}
}

func TestLockSerializesPerKey(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(100)
	var (
		mu     sync.Mutex
		active int
		peak   int
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := c.Lock("Acme AG", "acme.ch")
			defer unlock()
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("per-key critical section overlap: peak = %d", peak)
	}
}
