// Package rss implements the feed-based source adapter. It understands both
// RSS 2.0 and Atom envelopes, which covers the job boards worth polling.
package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/source"
)

func init() {
	source.Register("rss", func(cfg config.SourceConfig, deps source.Deps) (source.Fetcher, error) {
		return New(cfg.Name, cfg.URL, deps.Limiter), nil
	})
}

type Fetcher struct {
	name    string
	feedURL string
	hc      *http.Client
	limiter *source.HostLimiter
}

func New(name, feedURL string, limiter *source.HostLimiter) *Fetcher {
	return &Fetcher{
		name:    name,
		feedURL: feedURL,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
	}
}

func (f *Fetcher) Name() string { return f.name }

// envelope holds both RSS 2.0 (<rss><channel><item>) and Atom
// (<feed><entry>) shapes; unmarshalling fills whichever is present.
type envelope struct {
	Channel *struct {
		Items []item `xml:"item"`
	} `xml:"channel"`
	Entries []entry `xml:"entry"`
}

type item struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Region      string `xml:"region"` // weworkremotely extension
}

type entry struct {
	ID    string `xml:"id"`
	Title string `xml:"title"`
	Link  struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Summary   string `xml:"summary"`
	Content   string `xml:"content"`
	Updated   string `xml:"updated"`
	Published string `xml:"published"`
}

func (f *Fetcher) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, f.feedURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("rss request: %w", err)
	}
	req.Header.Set("User-Agent", "jobagent/1.0 (+local)")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	res, err := f.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss get %s: %w", f.feedURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("rss %s status %d", f.feedURL, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("rss read body: %w", err)
	}

	return Parse(body)
}

// Parse decodes a feed document into raw records. Split out of Fetch so
// fixture tests don't need a server.
func Parse(body []byte) ([]domain.RawRecord, error) {
	var env envelope
	if err := xml.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("rss parse: %w", err)
	}

	var out []domain.RawRecord
	if env.Channel != nil {
		for _, it := range env.Channel.Items {
			title, company := splitFeedTitle(source.CleanText(it.Title))
			out = append(out, domain.RawRecord{
				ExternalID:  strings.TrimSpace(firstNonEmpty(it.GUID, it.Link)),
				Title:       title,
				Company:     company,
				Location:    source.CleanText(it.Region),
				URL:         strings.TrimSpace(it.Link),
				Description: source.StripHTML(it.Description),
				PublishedAt: parseFeedTime(it.PubDate),
				Raw:         it.Description,
			})
		}
	}
	for _, e := range env.Entries {
		title, company := splitFeedTitle(source.CleanText(e.Title))
		desc := firstNonEmpty(e.Summary, e.Content)
		out = append(out, domain.RawRecord{
			ExternalID:  strings.TrimSpace(firstNonEmpty(e.ID, e.Link.Href)),
			Title:       title,
			Company:     company,
			URL:         strings.TrimSpace(e.Link.Href),
			Description: source.StripHTML(desc),
			PublishedAt: parseFeedTime(firstNonEmpty(e.Published, e.Updated)),
			Raw:         desc,
		})
	}
	return out, nil
}

// splitFeedTitle handles the common "Company: Job Title" convention in job
// feeds. Titles without the separator pass through with an empty company.
func splitFeedTitle(t string) (title, company string) {
	if i := strings.Index(t, ": "); i > 0 && i < 60 {
		return strings.TrimSpace(t[i+2:]), strings.TrimSpace(t[:i])
	}
	return t, ""
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

func parseFeedTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

func firstNonEmpty(xs ...string) string {
	for _, x := range xs {
		if strings.TrimSpace(x) != "" {
			return x
		}
	}
	return ""
}
