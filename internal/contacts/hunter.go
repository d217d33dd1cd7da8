package contacts

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
	"github.com/designsnack/leadharvest/internal/metrics"
)

// HunterClient calls the Hunter.io domain-search API.
type HunterClient struct {
	client *resty.Client
	apiKey string
	limit  int
	logger *zap.Logger
}

// HunterConfig carries the provider settings.
type HunterConfig struct {
	BaseURL string
	APIKey  string
	Limit   int
	Timeout time.Duration
}

// NewHunterClient builds a provider client with a bounded request timeout.
func NewHunterClient(cfg HunterConfig, logger *zap.Logger) *HunterClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 10
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)
	return &HunterClient{
		client: client,
		apiKey: cfg.APIKey,
		limit:  cfg.Limit,
		logger: logger,
	}
}

type hunterResponse struct {
	Data struct {
		Emails []struct {
			Value        string `json:"value"`
			FirstName    string `json:"first_name"`
			LastName     string `json:"last_name"`
			Position     string `json:"position"`
			Department   string `json:"department"`
			Verification struct {
				Result string `json:"result"`
			} `json:"verification"`
		} `json:"emails"`
	} `json:"data"`
}

// DomainSearch fetches raw contact rows for a domain, capped at the
// configured limit. The second return value is the provider's pre-filter
// result count.
func (c *HunterClient) DomainSearch(ctx context.Context, domain string) ([]leads.ProviderRecord, int, error) {
	metrics.ProviderCalls.WithLabelValues("hunter").Inc()
	var payload hunterResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"domain":  domain,
			"api_key": c.apiKey,
			"limit":   strconv.Itoa(c.limit),
		}).
		SetResult(&payload).
		Get("/domain-search")
	if err != nil {
		return nil, 0, fmt.Errorf("domain search: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("domain search: status %d", resp.StatusCode())
	}

	records := make([]leads.ProviderRecord, 0, len(payload.Data.Emails))
	for _, email := range payload.Data.Emails {
		records = append(records, leads.ProviderRecord{
			Email:        email.Value,
			FirstName:    email.FirstName,
			LastName:     email.LastName,
			Position:     email.Position,
			Department:   email.Department,
			Verification: email.Verification.Result,
		})
	}
	return records, len(records), nil
}
