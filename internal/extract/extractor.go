// Package extract converts rendered listings pages into structured job records.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/designsnack/leadharvest/internal/leads"
)

// Candidate container text-length band. Shorter nodes are fragments of a
// posting, longer ones are page chrome wrapping many postings.
const (
	minContainerText = 50
	maxContainerText = 1000
)

// fallbackThreshold activates the link-ancestor strategy when the marker
// heuristic yields fewer candidates than this.
const fallbackThreshold = 5

// maxTitleLen is the acceptance ceiling for a parsed title.
const maxTitleLen = 200

// Extractor parses job postings out of one rendered listings page.
// Extraction is pure: identical input HTML yields identical records.
type Extractor struct {
	detailPath string
	logger     *zap.Logger
}

// New constructs an Extractor. detailPath is the URL fragment identifying
// detail-page links (e.g. "/vacancies/detail/").
func New(detailPath string, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{detailPath: detailPath, logger: logger}
}

type candidate struct {
	text string
	url  string
}

// Extract returns zero or more job records parsed from the page. Malformed
// candidates are expected noise and are dropped silently.
func (e *Extractor) Extract(page leads.RawPage) []leads.JobRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		e.logger.Warn("parse page html failed",
			zap.Int("page", page.PageIndex), zap.Error(err))
		return nil
	}

	candidates := e.findCandidates(doc)

	records := make([]leads.JobRecord, 0, len(candidates))
	for _, c := range candidates {
		if record, ok := e.parseCandidate(c); ok {
			records = append(records, record)
		}
	}
	return records
}

// findCandidates locates the DOM regions believed to each hold one posting.
func (e *Extractor) findCandidates(doc *goquery.Document) []candidate {
	seen := make(map[string]bool)
	var out []candidate

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		text := normalizeText(s.Text())
		if !strings.Contains(strings.ToLower(text), strings.ToLower(quickApplyMarker)) {
			return
		}
		if len(text) <= minContainerText || len(text) >= maxContainerText {
			return
		}
		url := e.detailURL(s)
		switch {
		case url != "":
			if seen[url] {
				return
			}
			seen[url] = true
			out = append(out, candidate{text: text, url: url})
		case strings.Contains(text, placeOfWorkLabel) && strings.Contains(text, workloadLabel):
			// No link, but the container carries both labels.
			out = append(out, candidate{text: text})
		}
	})

	if len(out) < fallbackThreshold {
		out = e.addLinkAncestors(doc, out, seen)
	}
	return out
}

// addLinkAncestors is the fallback discovery strategy: collect detail-page
// links and climb each link's ancestor chain until an ancestor looks like a
// whole posting.
func (e *Extractor) addLinkAncestors(doc *goquery.Document, out []candidate, seen map[string]bool) []candidate {
	doc.Find("a[href*='" + e.detailPath + "']").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if href == "" || seen[href] {
			return
		}
		for parent := link.Parent(); parent.Length() > 0 && !parent.Is("body"); parent = parent.Parent() {
			text := normalizeText(parent.Text())
			if strings.Contains(text, placeOfWorkLabel) ||
				strings.Contains(text, workloadLabel) ||
				len(text) > 100 {
				seen[href] = true
				out = append(out, candidate{text: text, url: href})
				break
			}
		}
	})
	return out
}

// detailURL returns the candidate's detail-page link, or "" when the
// container carries none.
func (e *Extractor) detailURL(s *goquery.Selection) string {
	if s.Is("a") {
		if href, ok := s.Attr("href"); ok && strings.Contains(href, e.detailPath) {
			return href
		}
	}
	href, _ := s.Find("a").First().Attr("href")
	if strings.Contains(href, e.detailPath) {
		return href
	}
	return ""
}

// parseCandidate runs the independent field extractors over the container
// text. A candidate becomes a record only when it yields a usable title.
func (e *Extractor) parseCandidate(c candidate) (leads.JobRecord, bool) {
	text := c.text

	published := extractPublishedDate(text)
	location := extractLocation(text)
	workload := extractWorkload(text)
	contractType := extractContractType(text)
	company := extractCompany(text, contractType)
	title := extractTitle(text)

	if title == "" || len(title) > maxTitleLen {
		return leads.JobRecord{}, false
	}

	return leads.JobRecord{
		Title:         title,
		Company:       company,
		Location:      location,
		Workload:      workload,
		ContractType:  contractType,
		PublishedDate: published,
		Description:   composeDescription(published, location, workload, contractType, company),
		URL:           c.url,
	}, true
}
