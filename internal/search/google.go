// Package search implements the web search lookup used for domain resolution.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/metrics"
)

const customSearchEndpoint = "https://www.googleapis.com/customsearch/v1"

// GoogleClient queries the Google Custom Search JSON API.
type GoogleClient struct {
	client   *resty.Client
	apiKey   string
	engineID string
	logger   *zap.Logger
}

// NewGoogleClient builds a search client with a bounded request timeout.
func NewGoogleClient(apiKey, engineID string, timeout time.Duration, logger *zap.Logger) *GoogleClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(customSearchEndpoint).
		SetTimeout(timeout)
	return &GoogleClient{
		client:   client,
		apiKey:   apiKey,
		engineID: engineID,
		logger:   logger,
	}
}

type searchResponse struct {
	Items []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"items"`
}

// Search runs one query and returns the ranked result links.
func (c *GoogleClient) Search(ctx context.Context, query string) ([]leads.ResultLink, error) {
	metrics.ProviderCalls.WithLabelValues("google_cse").Inc()
	var payload searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key": c.apiKey,
			"cx":  c.engineID,
			"q":   query,
		}).
		SetResult(&payload).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search request: status %d", resp.StatusCode())
	}

	links := make([]leads.ResultLink, 0, len(payload.Items))
	for _, item := range payload.Items {
		links = append(links, leads.ResultLink{Title: item.Title, URL: item.Link})
	}
	return links, nil
}
