package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/outreach"
)

type fakeRunner struct {
	session leads.SearchSession
	err     error
	terms   []string
}

func (f *fakeRunner) Run(_ context.Context, term string) (leads.SearchSession, error) {
	f.terms = append(f.terms, term)
	return f.session, f.err
}

type fakeEnricher struct {
	enrichment leads.Enrichment
}

func (f *fakeEnricher) Enrich(_ context.Context, company, jobTitle, searchTerm string) leads.Enrichment {
	e := f.enrichment
	e.Company = company
	e.JobTitle = jobTitle
	e.SearchTerm = searchTerm
	return e
}

type fakeDrafter struct {
	draft outreach.Draft
	err   error
}

func (f *fakeDrafter) Generate(context.Context, leads.JobRecord, leads.ContactRecord, string) (outreach.Draft, error) {
	return f.draft, f.err
}

type fakeSessionStore struct {
	sessions map[string]leads.SearchSession
	history  []leads.SessionSummary
	err      error
}

func (f *fakeSessionStore) Save(context.Context, leads.SearchSession) error { return nil }

func (f *fakeSessionStore) Get(_ context.Context, id string) (leads.SearchSession, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return leads.SearchSession{}, errors.New("not found")
	}
	return sess, nil
}

func (f *fakeSessionStore) History(context.Context) ([]leads.SessionSummary, error) {
	return f.history, f.err
}

type fakeClock struct{ at time.Time }

func (c *fakeClock) Now() time.Time { return c.at }

func newTestServer(runner SearchRunner, enricher Enricher, drafter EmailDrafter, store leads.SessionStore) *Server {
	return NewServer(runner, enricher, drafter, store,
		&fakeClock{at: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		30*time.Second, zap.NewNop())
}

func TestSearchSucceeds(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{session: leads.SearchSession{
		ID:           "2026-03-01_ux-designer_09-00-00",
		SearchTerm:   "ux designer",
		TotalResults: 2,
		Jobs:         []leads.JobRecord{{ID: "job_1"}, {ID: "job_2"}},
	}}
	server := newTestServer(runner, &fakeEnricher{}, nil, &fakeSessionStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/search",
		bytes.NewBufferString(`{"searchTerm":"  ux designer  "}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2026-03-01_ux-designer_09-00-00", resp.SearchID)
	require.Equal(t, 2, resp.TotalJobs)
	require.Len(t, resp.Jobs, 2)
	require.Equal(t, []string{"ux designer"}, runner.terms)
}

func TestSearchRequiresTerm(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, &fakeSessionStore{})
	for _, body := range []string{`{}`, `{"searchTerm":"   "}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestSearchInvalidJSON(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, &fakeSessionStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/search", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRunFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("browser crashed")}
	server := newTestServer(runner, &fakeEnricher{}, nil, &fakeSessionStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/search",
		bytes.NewBufferString(`{"searchTerm":"designer"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSearchHistory(t *testing.T) {
	t.Parallel()

	store := &fakeSessionStore{history: []leads.SessionSummary{
		{ID: "s2", SearchTerm: "developer", ResultCount: 5},
		{ID: "s1", SearchTerm: "designer", ResultCount: 3},
	}}
	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, store)
	req := httptest.NewRequest(http.MethodGet, "/api/search-history", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var history []leads.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	require.Equal(t, "s2", history[0].ID)
}

func TestSearchHistoryEmptyIsArray(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, &fakeSessionStore{})
	req := httptest.NewRequest(http.MethodGet, "/api/search-history", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}

func TestSearchByID(t *testing.T) {
	t.Parallel()

	store := &fakeSessionStore{sessions: map[string]leads.SearchSession{
		"s1": {ID: "s1", SearchTerm: "designer", TotalResults: 1},
	}}
	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, store)

	req := httptest.NewRequest(http.MethodGet, "/api/search/s1", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"designer"`)

	req = httptest.NewRequest(http.MethodGet, "/api/search/missing", nil)
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContacts(t *testing.T) {
	t.Parallel()

	enricher := &fakeEnricher{enrichment: leads.Enrichment{
		ContactResult: leads.ContactResult{
			Contacts:   []leads.ContactRecord{{Email: "ceo@acme.ch", Score: 8}},
			Domain:     "acme.ch",
			Confidence: "high",
		},
	}}
	server := newTestServer(&fakeRunner{}, enricher, nil, &fakeSessionStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/contacts",
		bytes.NewBufferString(`{"company":"Acme AG","jobTitle":"UX Designer","searchTerm":"ux designer"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got leads.Enrichment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Acme AG", got.Company)
	require.Equal(t, "acme.ch", got.Domain)
	require.Len(t, got.Contacts, 1)
}

func TestContactsRequiresCompany(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, &fakeSessionStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/contacts", bytes.NewBufferString(`{"company":"  "}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutreachDraft(t *testing.T) {
	t.Parallel()

	drafter := &fakeDrafter{draft: outreach.Draft{ID: "draft_1", Content: "Subject: Hello", Status: "draft"}}
	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, drafter, &fakeSessionStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/outreach",
		bytes.NewBufferString(`{"job":{"company":"Acme AG"},"contact":{"email":"jane@acme.ch"},"searchTerm":"designer"}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "draft_1")
}

func TestOutreachNotConfigured(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, &fakeSessionStore{})
	req := httptest.NewRequest(http.MethodPost, "/api/outreach",
		bytes.NewBufferString(`{"job":{"company":"Acme AG"},"contact":{"email":"jane@acme.ch"}}`))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeRunner{}, &fakeEnricher{}, nil, &fakeSessionStore{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
