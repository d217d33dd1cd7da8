package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetailDescription pulls a short description out of a job detail page. It
// prefers the main content region and falls back to the whole body, capped at
// the same length as listing descriptions.
func DetailDescription(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()

	text := ""
	for _, selector := range []string{"main", "article", "body"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			text = normalizeText(sel.Text())
		}
		if text != "" {
			break
		}
	}
	if runes := []rune(text); len(runes) > maxDescription {
		return string(runes[:maxDescription])
	}
	return text
}
