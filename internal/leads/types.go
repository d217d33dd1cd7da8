// Package leads defines core types shared across subsystems.
package leads

import "time"

// Confidence is the verification-quality label attached to a discovered contact.
type Confidence string

// Confidence values reported by the contact provider.
const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// JobRecord is one job posting extracted from a listings page.
type JobRecord struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Company       string    `json:"company"`
	Location      string    `json:"location"`
	Workload      string    `json:"workload"`
	ContractType  string    `json:"contractType"`
	PublishedDate string    `json:"publishedDate"`
	Description   string    `json:"description"`
	URL           string    `json:"url"`
	HotnessLevel  string    `json:"hotnessLevel,omitempty"`
	ScrapedAt     time.Time `json:"scrapedAt"`
}

// ContactRecord is a single discovered staff contact for a domain.
type ContactRecord struct {
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Position   string     `json:"position"`
	Department string     `json:"department"`
	Confidence Confidence `json:"confidence"`
	Score      int        `json:"score"`
}

// ContactResult is the ranked contact list produced for one domain.
// Contacts are sorted by score descending (stable on ties) and capped at 8.
// Confidence is "high" exactly when Contacts is non-empty.
type ContactResult struct {
	Contacts   []ContactRecord `json:"contacts"`
	Domain     string          `json:"domain"`
	Confidence string          `json:"confidence"`
	TotalFound int             `json:"totalFound"`
	Error      string          `json:"error,omitempty"`
}

// Enrichment is a ContactResult annotated with its provenance.
type Enrichment struct {
	ContactResult
	Company    string `json:"company"`
	JobTitle   string `json:"jobTitle"`
	SearchTerm string `json:"searchTerm"`
	Cached     bool   `json:"cached"`
}

// CacheEntry is the persisted form of one enrichment result.
type CacheEntry struct {
	CacheKey       string        `json:"cacheKey"`
	Company        string        `json:"company"`
	Domain         string        `json:"domain"`
	SearchTerm     string        `json:"searchTerm"`
	Timestamp      time.Time     `json:"timestamp"`
	ExpiresAt      time.Time     `json:"expiresAt"`
	ContactResults ContactResult `json:"contactResults"`
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// SessionMetadata carries per-run statistics stored with a session.
type SessionMetadata struct {
	SearchDurationMs int64          `json:"searchDuration"`
	HotnessStats     map[string]int `json:"hotnessStats"`
}

// SearchSession is the immutable record of one completed crawl.
type SearchSession struct {
	ID           string          `json:"id"`
	SearchTerm   string          `json:"searchTerm"`
	Timestamp    time.Time       `json:"timestamp"`
	TotalResults int             `json:"totalResults"`
	Jobs         []JobRecord     `json:"jobs"`
	Metadata     SessionMetadata `json:"metadata"`
}

// SessionSummary is the history-index view of a session.
type SessionSummary struct {
	ID          string    `json:"id"`
	SearchTerm  string    `json:"searchTerm"`
	Timestamp   time.Time `json:"timestamp"`
	ResultCount int       `json:"resultCount"`
}

// RawPage is one rendered listings page handed to the extractor.
type RawPage struct {
	PageIndex int
	URL       string
	HTML      string
	HasNext   bool
}

// ResultLink is one ranked hit returned by a search lookup.
type ResultLink struct {
	Title string
	URL   string
}

// ProviderRecord is a raw contact row returned by the enrichment provider
// before filtering and scoring.
type ProviderRecord struct {
	Email        string
	FirstName    string
	LastName     string
	Position     string
	Department   string
	Verification string
}
