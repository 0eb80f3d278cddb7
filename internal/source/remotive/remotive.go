// Package remotive implements the API-based source adapter for the public
// remotive.com remote-jobs endpoint.
package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/source"
)

const apiURL = "https://remotive.com/api/remote-jobs"

func init() {
	source.Register("remotive", func(cfg config.SourceConfig, deps source.Deps) (source.Fetcher, error) {
		f := New(cfg.Name, cfg.Category, deps.Limiter)
		return f, nil
	})
}

type Fetcher struct {
	name     string
	category string
	baseURL  string
	hc       *http.Client
	limiter  *source.HostLimiter
}

func New(name, category string, limiter *source.HostLimiter) *Fetcher {
	return &Fetcher{
		name:     name,
		category: category,
		baseURL:  apiURL,
		hc:       &http.Client{Timeout: 20 * time.Second},
		limiter:  limiter,
	}
}

func (f *Fetcher) Name() string { return f.name }

type apiResponse struct {
	Jobs []apiJob `json:"jobs"`
}

type apiJob struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"candidate_required_location"`
	URL             string `json:"url"`
	Description     string `json:"description"` // html
	PublicationDate string `json:"publication_date"`
	Salary          string `json:"salary"` // free text, e.g. "$90,000 - $110,000"
}

func (f *Fetcher) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	reqURL := f.baseURL
	if f.category != "" {
		reqURL += "?category=" + url.QueryEscape(f.category)
	}

	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, reqURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("remotive request: %w", err)
	}
	req.Header.Set("User-Agent", "jobagent/1.0 (+local)")
	req.Header.Set("Accept", "application/json")

	res, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("remotive status %d", res.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("remotive decode: %w", err)
	}

	out := make([]domain.RawRecord, 0, len(payload.Jobs))
	for _, j := range payload.Jobs {
		rawB, _ := json.Marshal(j)
		out = append(out, domain.RawRecord{
			ExternalID:  strconv.FormatInt(j.ID, 10),
			Title:       source.CleanText(j.Title),
			Company:     source.CleanText(j.CompanyName),
			Location:    source.CleanText(j.Location),
			URL:         strings.TrimSpace(j.URL),
			Description: source.StripHTML(j.Description),
			PublishedAt: parsePublication(j.PublicationDate),
			Salary:      parseSalary(j.Salary),
			Raw:         string(rawB),
		})
	}
	return out, nil
}

func parsePublication(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

var reAmount = regexp.MustCompile(`[0-9][0-9,]*`)

// parseSalary pulls the first amount out of remotive's free-text salary
// field ("$90,000 - $110,000" -> 90000). Anything unparseable stays nil.
func parseSalary(s string) *float64 {
	m := reAmount.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}
