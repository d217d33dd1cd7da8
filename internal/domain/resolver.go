// Package domain maps company names to their most likely web domain.
package domain

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
)

// Hostnames that never belong to a posting company: social networks, the
// encyclopedia, the job board itself and a generic aggregator.
var denylist = []string{
	"linkedin.com",
	"facebook.com",
	"wikipedia.org",
	"jobs.ch",
	"indeed.com",
}

var (
	legalSuffixRe = regexp.MustCompile(`(?i)\b(AG|GmbH|Ltd|Inc|Corp|LLC|SA)\b`)
	guessSuffixRe = regexp.MustCompile(`(?i)\b(ag|gmbh|ltd|inc|corp|llc|sa|schweiz|switzerland)\b`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]`)
)

// resultsPerQuery bounds how many hits of each query variant are scanned.
const resultsPerQuery = 3

// Resolver finds a company's web domain through ranked search lookups with a
// deterministic name-mangling fallback. Resolve never fails outright.
type Resolver struct {
	search leads.SearchClient
	logger *zap.Logger
}

// NewResolver constructs a Resolver on top of a search client. A nil client
// skips straight to the fallback guess.
func NewResolver(search leads.SearchClient, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{search: search, logger: logger}
}

// Resolve returns the best-effort domain for the company. Search strategies
// are tried in order and the first qualifying hostname wins; when every
// strategy fails the deterministic guess is returned.
func (r *Resolver) Resolve(ctx context.Context, company string) string {
	clean := strings.TrimSpace(legalSuffixRe.ReplaceAllString(company, ""))

	if r.search != nil {
		queries := []string{
			fmt.Sprintf("%q official website", clean),
			fmt.Sprintf("%s company website", clean),
			fmt.Sprintf("%s careers jobs", clean),
		}
		for _, query := range queries {
			links, err := r.search.Search(ctx, query)
			if err != nil {
				r.logger.Debug("domain search query failed",
					zap.String("query", query), zap.Error(err))
				continue
			}
			if host := firstQualifying(links); host != "" {
				r.logger.Debug("domain resolved via search",
					zap.String("company", company), zap.String("domain", host))
				return host
			}
		}
	}

	guess := GuessDomain(clean)
	r.logger.Debug("domain resolved via fallback guess",
		zap.String("company", company), zap.String("domain", guess))
	return guess
}

func firstQualifying(links []leads.ResultLink) string {
	limit := len(links)
	if limit > resultsPerQuery {
		limit = resultsPerQuery
	}
	for _, link := range links[:limit] {
		parsed, err := url.Parse(link.URL)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		host := strings.ToLower(parsed.Hostname())
		if isDenied(host) {
			continue
		}
		return strings.TrimPrefix(host, "www.")
	}
	return ""
}

func isDenied(host string) bool {
	for _, denied := range denylist {
		if strings.Contains(host, denied) {
			return true
		}
	}
	return false
}

// GuessDomain derives a domain from the company name alone: lowercase, strip
// legal and locale suffixes, drop non-alphanumerics, append ".ch". The ".com"
// and ".de" variants exist in the candidate order but only the first is ever
// returned.
func GuessDomain(company string) string {
	name := strings.ToLower(company)
	name = guessSuffixRe.ReplaceAllString(name, "")
	name = nonAlnumRe.ReplaceAllString(name, "")

	candidates := []string{name + ".ch", name + ".com", name + ".de"}
	return candidates[0]
}
