// Package session persists completed search sessions and their history.
package session

import (
	"regexp"
	"strings"
	"time"

	"github.com/designsnack/leadharvest/internal/leads"
)

// defaultMaxHistory is the default bound on the session history index.
const defaultMaxHistory = 50

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// NewID derives a session identifier from the timestamp and the normalized
// search term: "2026-09-01_ux-designer_14-03-22".
func NewID(searchTerm string, at time.Time) string {
	cleanTerm := nonAlnumRe.ReplaceAllString(strings.ToLower(searchTerm), "-")
	return at.Format("2006-01-02") + "_" + cleanTerm + "_" + at.Format("15-04-05")
}

// HotnessStats builds the hot/warm/cold histogram over the session's jobs.
func HotnessStats(jobs []leads.JobRecord) map[string]int {
	stats := map[string]int{"hot": 0, "warm": 0, "cold": 0}
	for _, job := range jobs {
		if job.HotnessLevel != "" {
			stats[job.HotnessLevel]++
		}
	}
	return stats
}
