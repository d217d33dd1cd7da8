package extract

import (
	"regexp"
	"strings"
)

// Marker phrases the listings site renders into each posting container.
const (
	quickApplyMarker  = "Easy apply"
	recommendedMarker = "Recommended"
	placeOfWorkLabel  = "Place of work:"
	workloadLabel     = "Workload:"
	contractLabel     = "Contract type:"
)

// maxDescription caps every derived description field.
const maxDescription = 300

// relativeTimeVocab matches the fixed vocabulary of relative-time phrases the
// site prefixes postings with. Must anchor at text start.
const relativeTimeVocab = `Last week|Last month|Last quarter|Last year|Yesterday|\d+\s+(?:days?|weeks?|months?|quarters?)\s+ago|New`

var (
	publishedRe     = regexp.MustCompile(`^(` + relativeTimeVocab + `)`)
	locationRe      = regexp.MustCompile(`Place of work:\s*([^W]+?)\s*(?:Workload:|$)`)
	workloadRe      = regexp.MustCompile(`Workload:\s*([^C]+?)\s*(?:Contract type:|$)`)
	contractRe      = regexp.MustCompile(`Contract type:\s*([^A-Z]+?)(?:[A-Z]|$)`)
	companyRe       = regexp.MustCompile(`([A-Z][A-Za-z\s&.\-,]+?)\s*(?:Easy apply|Recommended|$)`)
	companyFallbkRe = regexp.MustCompile(`([A-Z][A-Za-z\s&.\-,]{3,50}?)\s*(?:Easy apply|Recommended|$)`)
	employmentRe    = regexp.MustCompile(`^(?:Unlimited employment|Limited|Permanent|Contract|Temporary)\s*`)
	titleRe         = regexp.MustCompile(`^(?:` + relativeTimeVocab + `)?\s*(.+?)\s*(?:Place of work:|$)`)
	leadingTimeRe   = regexp.MustCompile(`^(?:` + relativeTimeVocab + `)\s*`)
	leadingDashRe   = regexp.MustCompile(`^\s*[-–]\s*`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// normalizeText collapses runs of whitespace so the field extractors see one
// flat line, matching how the browser concatenates the labelled fields.
func normalizeText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Each extractor below is independent: same normalized input, optional output,
// empty string on no match.

func extractPublishedDate(text string) string {
	if m := publishedRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractLocation(text string) string {
	if m := locationRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractWorkload(text string) string {
	if m := workloadRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractContractType(text string) string {
	if m := contractRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractCompany(text, contractType string) string {
	if contractType != "" {
		if _, after, found := strings.Cut(text, contractLabel+contractType); found {
			if m := companyRe.FindStringSubmatch(after); m != nil {
				company := employmentRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
				if company = strings.TrimSpace(company); company != "" {
					return company
				}
			}
		}
	}
	// Fall back to a capitalized run preceding the terminator phrase.
	before, _, _ := strings.Cut(text, quickApplyMarker)
	if m := companyFallbkRe.FindStringSubmatch(before); m != nil {
		company := employmentRe.ReplaceAllString(strings.TrimSpace(m[1]), "")
		return strings.TrimSpace(company)
	}
	return ""
}

func extractTitle(text string) string {
	var title string
	if m := titleRe.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	} else {
		before, _, _ := strings.Cut(text, placeOfWorkLabel)
		title = strings.TrimSpace(leadingTimeRe.ReplaceAllString(before, ""))
	}
	return strings.TrimSpace(leadingDashRe.ReplaceAllString(title, ""))
}

// composeDescription joins the non-empty parsed fields into a short
// human-readable summary, capped at 300 characters.
func composeDescription(published, location, workload, contractType, company string) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{published, location, workload, contractType, company} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	description := strings.Join(parts, " • ")
	if runes := []rune(description); len(runes) > maxDescription {
		return string(runes[:maxDescription])
	}
	return description
}
