package match

import (
	"sort"
	"strings"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
)

// Score computes the additive relevance score: +2 per include keyword found
// in the title (once per keyword, not per occurrence), +1 when "remote"
// appears in location+description. Deterministic, never negative.
func Score(p domain.Posting, filters config.FilterConfig) int {
	score := 0

	title := strings.ToLower(p.Title)
	for _, kw := range filters.IncludeKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(title, kw) {
			score += 2
		}
	}

	if strings.Contains(strings.ToLower(p.Location+" "+p.Description), "remote") {
		score++
	}

	return score
}

// SortCandidates orders by score descending; the stable sort keeps fetch
// order among equal scores.
func SortCandidates(cs []domain.RunCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Score > cs[j].Score
	})
}
