package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("cx"); got != "test-cx" {
			t.Errorf("cx = %q, want test-cx", got)
		}
		if got := r.URL.Query().Get("q"); got != `"Acme AG" official website` {
			t.Errorf("q = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Acme AG","link":"https://www.acme.ch/"},
			{"title":"Acme on LinkedIn","link":"https://linkedin.com/company/acme"}
		]}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("test-key", "test-cx", 5*time.Second, zap.NewNop())
	c.client.SetBaseURL(srv.URL)

	links, err := c.Search(context.Background(), `"Acme AG" official website`)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("links = %d, want 2", len(links))
	}
	if links[0].URL != "https://www.acme.ch/" {
		t.Fatalf("links[0].URL = %q", links[0].URL)
	}
}

func TestSearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGoogleClient("k", "cx", 5*time.Second, zap.NewNop())
	c.client.SetBaseURL(srv.URL)

	if _, err := c.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestSearchNoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewGoogleClient("k", "cx", 5*time.Second, zap.NewNop())
	c.client.SetBaseURL(srv.URL)

	links, err := c.Search(context.Background(), "obscure query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("links = %d, want 0", len(links))
	}
}
