// Package api exposes the HTTP interface for the lead pipeline.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/outreach"
)

// SearchRunner executes one crawl-and-persist run for a term.
type SearchRunner interface {
	Run(ctx context.Context, term string) (leads.SearchSession, error)
}

// Enricher produces the contact list for one company.
type Enricher interface {
	Enrich(ctx context.Context, company, jobTitle, searchTerm string) leads.Enrichment
}

// EmailDrafter generates an outreach draft for a contact.
type EmailDrafter interface {
	Generate(ctx context.Context, job leads.JobRecord, contact leads.ContactRecord, searchTerm string) (outreach.Draft, error)
}

// Server wires HTTP handlers to the pipeline and stores.
type Server struct {
	router   chi.Router
	runner   SearchRunner
	enricher Enricher
	drafter  EmailDrafter
	sessions leads.SessionStore
	clock    leads.Clock
	logger   *zap.Logger

	// searchMu serializes searches: the browser context is exclusive.
	searchMu sync.Mutex
}

// NewServer constructs a Server with middleware and routes. The drafter may
// be nil when outreach generation is not configured.
func NewServer(
	runner SearchRunner,
	enricher Enricher,
	drafter EmailDrafter,
	sessions leads.SessionStore,
	clock leads.Clock,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner:   runner,
		enricher: enricher,
		drafter:  drafter,
		sessions: sessions,
		clock:    clock,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(requestTimeout))

	r.Get("/api/health", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/search", s.search)
	r.Get("/api/search-history", s.searchHistory)
	r.Get("/api/search/{id}", s.searchByID)
	r.Post("/api/contacts", s.contacts)
	r.Post("/api/outreach", s.outreachDraft)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.clock.Now().Format(time.RFC3339),
	})
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

type searchResponse struct {
	SearchID   string            `json:"searchId"`
	SearchTerm string            `json:"searchTerm"`
	TotalJobs  int               `json:"totalJobs"`
	ScrapedAt  time.Time         `json:"scrapedAt"`
	Jobs       []leads.JobRecord `json:"jobs"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	term := strings.TrimSpace(req.SearchTerm)
	if term == "" {
		writeError(w, http.StatusBadRequest, "search term is required")
		return
	}

	s.searchMu.Lock()
	sess, err := s.runner.Run(r.Context(), term)
	s.searchMu.Unlock()
	if err != nil {
		s.logger.Error("search failed", zap.String("term", term), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to search jobs")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		SearchID:   sess.ID,
		SearchTerm: sess.SearchTerm,
		TotalJobs:  sess.TotalResults,
		ScrapedAt:  s.clock.Now(),
		Jobs:       sess.Jobs,
	})
}

func (s *Server) searchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.sessions.History(r.Context())
	if err != nil {
		s.logger.Error("history fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch search history")
		return
	}
	if history == nil {
		history = []leads.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) searchByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "search not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type contactsRequest struct {
	Company    string `json:"company"`
	JobTitle   string `json:"jobTitle"`
	SearchTerm string `json:"searchTerm"`
}

func (s *Server) contacts(w http.ResponseWriter, r *http.Request) {
	var req contactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Company) == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}
	enrichment := s.enricher.Enrich(r.Context(), strings.TrimSpace(req.Company), req.JobTitle, req.SearchTerm)
	writeJSON(w, http.StatusOK, enrichment)
}

type outreachRequest struct {
	Job        leads.JobRecord     `json:"job"`
	Contact    leads.ContactRecord `json:"contact"`
	SearchTerm string              `json:"searchTerm"`
}

func (s *Server) outreachDraft(w http.ResponseWriter, r *http.Request) {
	if s.drafter == nil {
		writeError(w, http.StatusServiceUnavailable, "outreach generation not configured")
		return
	}
	var req outreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Job.Company == "" || req.Contact.Email == "" {
		writeError(w, http.StatusBadRequest, "job company and contact email are required")
		return
	}
	draft, err := s.drafter.Generate(r.Context(), req.Job, req.Contact, req.SearchTerm)
	if err != nil {
		s.logger.Error("outreach draft failed",
			zap.String("contact", req.Contact.Email), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to generate email")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
