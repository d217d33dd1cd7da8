package contacts

import "strings"

// Seniority tiers checked highest first; the first matching tier wins.
var seniorityTiers = []struct {
	keywords []string
	points   int
}{
	{[]string{"ceo", "founder", "president"}, 8},
	{[]string{"hr", "human resources", "recruitment", "talent"}, 7},
	{[]string{"head", "director", "vp", "chief"}, 6},
	{[]string{"manager", "lead"}, 5},
}

// Role-hint bonus families. Each check is independent of the others.
var (
	designHints    = []string{"design", "ux", "ui"}
	designRoles    = []string{"design", "ux", "ui", "creative"}
	techHints      = []string{"developer", "engineer"}
	techRoles      = []string{"tech", "engineering", "developer", "cto"}
	marketingRoles = []string{"marketing", "brand", "communication"}
)

// Score computes the relevance score for one contact. Higher is better; the
// function is deterministic for identical inputs.
func Score(position, department string, confidence string, roleHint string) int {
	pos := strings.ToLower(position)
	dept := strings.ToLower(department)
	hint := strings.ToLower(roleHint)

	score := 0

	for _, tier := range seniorityTiers {
		if containsAny(pos, tier.keywords) {
			score += tier.points
			break
		}
	}

	if containsAny(hint, designHints) && containsAny(pos, designRoles) {
		score += 10
	}
	if containsAny(hint, techHints) && containsAny(pos, techRoles) {
		score += 8
	}
	if strings.Contains(hint, "marketing") && containsAny(pos, marketingRoles) {
		score += 8
	}

	if containsAny(dept, []string{"design", "creative", "product"}) {
		score += 3
	}
	if containsAny(dept, []string{"hr", "people"}) {
		score += 2
	}

	switch confidence {
	case "high":
		score += 2
	case "medium":
		score++
	}

	return score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
