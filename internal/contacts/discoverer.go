// Package contacts discovers and ranks staff email contacts for a domain.
package contacts

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
)

// maxContacts caps how many ranked contacts a result carries.
const maxContacts = 8

// Discoverer turns a domain into a ranked, filtered contact list. Provider
// failures degrade to an empty low-confidence result and never propagate.
type Discoverer struct {
	provider leads.ContactProvider
	logger   *zap.Logger
}

// NewDiscoverer constructs a Discoverer.
func NewDiscoverer(provider leads.ContactProvider, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{provider: provider, logger: logger}
}

// Discover looks up contacts for the domain, drops undeliverable addresses,
// scores the rest against the role hint and returns the top entries sorted by
// score descending (stable on ties).
func (d *Discoverer) Discover(ctx context.Context, domain, roleHint string) leads.ContactResult {
	records, total, err := d.provider.DomainSearch(ctx, domain)
	if err != nil {
		d.logger.Warn("contact lookup failed",
			zap.String("domain", domain), zap.Error(err))
		return leads.ContactResult{
			Domain:     domain,
			Confidence: "low",
			Error:      err.Error(),
		}
	}

	contacts := make([]leads.ContactRecord, 0, len(records))
	for _, rec := range records {
		if rec.Verification == "undeliverable" {
			continue
		}
		confidence := rec.Verification
		if confidence == "" {
			confidence = string(leads.ConfidenceUnknown)
		}
		contacts = append(contacts, leads.ContactRecord{
			Email:      rec.Email,
			FirstName:  rec.FirstName,
			LastName:   rec.LastName,
			Position:   rec.Position,
			Department: rec.Department,
			Confidence: leads.Confidence(confidence),
			Score:      Score(rec.Position, rec.Department, confidence, roleHint),
		})
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].Score > contacts[j].Score
	})
	if len(contacts) > maxContacts {
		contacts = contacts[:maxContacts]
	}

	confidence := "low"
	if len(contacts) > 0 {
		confidence = "high"
	}

	return leads.ContactResult{
		Contacts:   contacts,
		Domain:     domain,
		Confidence: confidence,
		TotalFound: total,
	}
}
