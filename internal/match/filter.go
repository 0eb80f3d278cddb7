// Package match holds the pure filtering and scoring rules applied to every
// posting touched by a run.
package match

import (
	"strings"
	"time"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
)

// PassesFilters reports whether a posting survives all five rules. The rules
// are independently necessary; order is just short-circuit cheapness.
func PassesFilters(p domain.Posting, filters config.FilterConfig, stalenessDays int, salaryMin float64, now time.Time) bool {
	// 1) staleness: only a known publish date can reject
	if stalenessDays > 0 && p.PublishedAt != nil {
		cutoff := now.UTC().AddDate(0, 0, -stalenessDays)
		if p.PublishedAt.Before(cutoff) {
			return false
		}
	}

	text := searchBlob(p)

	// 2) include keywords: empty list matches everything
	if len(filters.IncludeKeywords) > 0 && !containsAny(text, filters.IncludeKeywords) {
		return false
	}

	// 3) exclude keywords
	if containsAny(text, filters.ExcludeKeywords) {
		return false
	}

	// 4) location allow-list; an explicit "remote" mention always passes
	if len(filters.Locations) > 0 {
		if !containsAny(text, filters.Locations) && !strings.Contains(text, "remote") {
			return false
		}
	}

	// 5) salary floor: only when both sides are known
	if salaryMin > 0 && p.Salary != nil && *p.Salary < salaryMin {
		return false
	}

	return true
}

func searchBlob(p domain.Posting) string {
	return strings.ToLower(strings.Join([]string{
		p.Title, p.Company, p.Location, p.Description,
	}, " "))
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
