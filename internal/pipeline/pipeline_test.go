package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/cache"
	"github.com/designsnack/leadharvest/internal/leads"
)

type fakeCrawler struct {
	records []leads.JobRecord
	pages   int
	err     error
}

func (f *fakeCrawler) Crawl(context.Context, string) ([]leads.JobRecord, int, error) {
	return f.records, f.pages, f.err
}

type fakeResolver struct {
	domain string
	calls  int64
}

func (f *fakeResolver) Resolve(context.Context, string) string {
	atomic.AddInt64(&f.calls, 1)
	return f.domain
}

type fakeDiscoverer struct {
	result leads.ContactResult
	calls  int64
}

func (f *fakeDiscoverer) Discover(context.Context, string, string) leads.ContactResult {
	atomic.AddInt64(&f.calls, 1)
	return f.result
}

type fakeSessionStore struct {
	saved []leads.SearchSession
}

func (f *fakeSessionStore) Save(_ context.Context, s leads.SearchSession) error {
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeSessionStore) Get(context.Context, string) (leads.SearchSession, error) {
	return leads.SearchSession{}, nil
}

func (f *fakeSessionStore) History(context.Context) ([]leads.SessionSummary, error) {
	return nil, nil
}

type fakeClock struct{ at time.Time }

func (c *fakeClock) Now() time.Time { return c.at }

func contactResult(domain string) leads.ContactResult {
	return leads.ContactResult{
		Contacts: []leads.ContactRecord{
			{Email: "ceo@" + domain, Position: "CEO", Score: 8},
		},
		Domain:     domain,
		Confidence: "high",
		TotalFound: 1,
	}
}

func newTestPipeline(crawler Crawler, resolver leads.DomainResolver, discoverer leads.ContactDiscoverer, store leads.SessionStore) (*Pipeline, *cache.Cache) {
	clk := &fakeClock{at: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
	contactCache := cache.New(cache.NewMemoryStore(), clk, 7*24*time.Hour, 100, zap.NewNop())
	return New(crawler, resolver, discoverer, contactCache, store, clk, 4, zap.NewNop()), contactCache
}

func TestRunPersistsSession(t *testing.T) {
	store := &fakeSessionStore{}
	crawler := &fakeCrawler{
		records: []leads.JobRecord{
			{ID: "job_1", Title: "Designer", Company: "Acme AG", HotnessLevel: "hot"},
			{ID: "job_2", Title: "Developer", Company: "Beta GmbH", HotnessLevel: "cold"},
		},
		pages: 1,
	}
	p, _ := newTestPipeline(crawler, &fakeResolver{domain: "acme.ch"}, &fakeDiscoverer{}, store)

	sess, err := p.Run(context.Background(), "ux designer")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID is empty")
	}
	if sess.TotalResults != 2 {
		t.Fatalf("TotalResults = %d, want 2", sess.TotalResults)
	}
	if sess.Metadata.HotnessStats["hot"] != 1 || sess.Metadata.HotnessStats["cold"] != 1 {
		t.Fatalf("HotnessStats = %v", sess.Metadata.HotnessStats)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved sessions = %d, want 1", len(store.saved))
	}
	if store.saved[0].ID != sess.ID {
		t.Fatalf("saved ID = %q, want %q", store.saved[0].ID, sess.ID)
	}
}

func TestEnrichMissCallsProviderAndCaches(t *testing.T) {
	resolver := &fakeResolver{domain: "acme.ch"}
	discoverer := &fakeDiscoverer{result: contactResult("acme.ch")}
	p, contactCache := newTestPipeline(&fakeCrawler{}, resolver, discoverer, &fakeSessionStore{})

	got := p.Enrich(context.Background(), "Acme AG", "UX Designer", "ux designer")
	if got.Cached {
		t.Fatal("first lookup reported cached")
	}
	if got.Domain != "acme.ch" || len(got.Contacts) != 1 {
		t.Fatalf("unexpected result: %+v", got.ContactResult)
	}
	if discoverer.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", discoverer.calls)
	}
	if _, ok := contactCache.Get(context.Background(), "Acme AG", "acme.ch"); !ok {
		t.Fatal("result was not cached")
	}
}

func TestEnrichHitMakesNoExternalCalls(t *testing.T) {
	resolver := &fakeResolver{domain: "acme.ch"}
	discoverer := &fakeDiscoverer{result: contactResult("acme.ch")}
	p, _ := newTestPipeline(&fakeCrawler{}, resolver, discoverer, &fakeSessionStore{})

	_ = p.Enrich(context.Background(), "Acme AG", "UX Designer", "ux designer")
	got := p.Enrich(context.Background(), "Acme AG", "UX Designer", "ux designer")

	if !got.Cached {
		t.Fatal("second lookup not served from cache")
	}
	if discoverer.calls != 1 {
		t.Fatalf("provider calls = %d, want 1 (hit must not call provider)", discoverer.calls)
	}
	if len(got.Contacts) != 1 || got.Contacts[0].Email != "ceo@acme.ch" {
		t.Fatalf("cached result changed: %+v", got.ContactResult)
	}
}

func TestEnrichEmptyResultNotCached(t *testing.T) {
	discoverer := &fakeDiscoverer{result: leads.ContactResult{Domain: "acme.ch", Confidence: "low"}}
	p, contactCache := newTestPipeline(&fakeCrawler{}, &fakeResolver{domain: "acme.ch"}, discoverer, &fakeSessionStore{})

	_ = p.Enrich(context.Background(), "Acme AG", "", "ux designer")
	if _, ok := contactCache.Get(context.Background(), "Acme AG", "acme.ch"); ok {
		t.Fatal("empty result must not be cached")
	}

	_ = p.Enrich(context.Background(), "Acme AG", "", "ux designer")
	if discoverer.calls != 2 {
		t.Fatalf("provider calls = %d, want 2 (empty results retry)", discoverer.calls)
	}
}

func TestEnrichBlankCompanyDegrades(t *testing.T) {
	resolver := &fakeResolver{domain: "acme.ch"}
	p, _ := newTestPipeline(&fakeCrawler{}, resolver, &fakeDiscoverer{}, &fakeSessionStore{})

	got := p.Enrich(context.Background(), "", "Designer", "designer")
	if got.Error == "" {
		t.Fatal("expected degraded result for blank company")
	}
	if resolver.calls != 0 {
		t.Fatalf("resolver calls = %d, want 0", resolver.calls)
	}
}

func TestEnrichAllPreservesOrder(t *testing.T) {
	resolver := &fakeResolver{domain: "acme.ch"}
	discoverer := &fakeDiscoverer{result: contactResult("acme.ch")}
	p, _ := newTestPipeline(&fakeCrawler{}, resolver, discoverer, &fakeSessionStore{})

	jobs := []leads.JobRecord{
		{Title: "Designer", Company: "Acme AG"},
		{Title: "Developer", Company: "Beta GmbH"},
		{Title: "Marketer", Company: "Gamma SA"},
	}
	results := p.EnrichAll(context.Background(), jobs, "designer")
	if len(results) != len(jobs) {
		t.Fatalf("results = %d, want %d", len(results), len(jobs))
	}
	for i := range jobs {
		if results[i].Company != jobs[i].Company {
			t.Fatalf("results[%d].Company = %q, want %q", i, results[i].Company, jobs[i].Company)
		}
	}
}
