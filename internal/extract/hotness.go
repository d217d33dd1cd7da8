package extract

import (
	"regexp"
	"strconv"
)

var daysAgoRe = regexp.MustCompile(`^(\d+)\s+days?\s+ago$`)

// Hotness buckets a relative-time phrase into hot/warm/cold for the session
// histogram. Unrecognized phrases land in cold.
func Hotness(publishedDate string) string {
	switch publishedDate {
	case "New", "Yesterday":
		return "hot"
	case "Last week":
		return "warm"
	}
	if m := daysAgoRe.FindStringSubmatch(publishedDate); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil && days <= 7 {
			return "warm"
		}
	}
	return "cold"
}
