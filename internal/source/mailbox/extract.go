package mailbox

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/source"
)

var reNakedURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// recordsFromMessage turns one alert mail into raw records, one per distinct
// job link found in the body.
func recordsFromMessage(m message) []domain.RawRecord {
	plain, htmlPart := parseBody(m.raw)

	type link struct {
		url   string
		title string
	}
	var links []link
	seen := map[string]bool{}

	add := func(u, title string) {
		u = strings.TrimRight(strings.TrimSpace(u), ".,);:]\"'")
		if u == "" || seen[u] || isJunkURL(u) {
			return
		}
		seen[u] = true
		links = append(links, link{url: u, title: source.CleanText(title)})
	}

	if htmlPart != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlPart)); err == nil {
			doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				add(href, a.Text())
			})
		}
	}
	for _, u := range reNakedURL.FindAllString(plain, -1) {
		add(u, "")
	}

	date := m.date
	out := make([]domain.RawRecord, 0, len(links))
	for _, l := range links {
		if !looksLikeJobURL(l.url) {
			continue
		}
		title := l.title
		if title == "" || looksLikeJunkTitle(title) {
			title = source.CleanText(m.subject)
		}
		rec := domain.RawRecord{
			Title:       title,
			URL:         l.url,
			Description: source.CleanText(m.subject),
			Raw:         l.url,
		}
		if !date.IsZero() {
			d := date.UTC()
			rec.PublishedAt = &d
		}
		out = append(out, rec)
	}
	return out
}

// parseBody splits a raw RFC822 message into its plain-text and HTML parts,
// walking multipart containers and decoding transfer encodings.
func parseBody(raw []byte) (plain, htmlPart string) {
	if len(raw) == 0 {
		return "", ""
	}
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw), ""
	}
	body, _ := io.ReadAll(io.LimitReader(msg.Body, 6<<20))

	ct := msg.Header.Get("Content-Type")
	cte := strings.ToLower(strings.TrimSpace(msg.Header.Get("Content-Transfer-Encoding")))
	return extractParts(ct, cte, body)
}

func extractParts(ct, cte string, body []byte) (plain, htmlPart string) {
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return string(decodeTransferEncoding(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return string(decodeTransferEncoding(body, cte)), ""
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			pb, _ := io.ReadAll(part)
			pCT := part.Header.Get("Content-Type")
			pCTE := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))

			p, h := extractParts(pCT, pCTE, pb)
			if plain == "" {
				plain = p
			}
			if htmlPart == "" {
				htmlPart = h
			}
		}
		return plain, htmlPart
	}

	decoded := string(decodeTransferEncoding(body, cte))
	switch {
	case strings.HasPrefix(mediaType, "text/html"):
		return "", decoded
	case strings.HasPrefix(mediaType, "text/"):
		return decoded, ""
	}
	return "", ""
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, err := io.ReadAll(dec)
		if err == nil {
			return out
		}
	case "quoted-printable":
		dec := quotedprintable.NewReader(bytes.NewReader(b))
		out, err := io.ReadAll(dec)
		if err == nil {
			return out
		}
	}
	return b
}

func looksLikeJobURL(u string) bool {
	lu := strings.ToLower(u)
	for _, marker := range []string{"/job", "/jobs", "/careers", "/apply", "/positions", "/openings"} {
		if strings.Contains(lu, marker) {
			return true
		}
	}
	return false
}

func isJunkURL(u string) bool {
	lu := strings.ToLower(u)
	junks := []string{
		"unsubscribe",
		"preferences",
		"manage-preferences",
		"email-preferences",
		"privacy",
		"terms",
		"view-in-browser",
		"viewaswebpage",
		"tracking",
		"pixel",
		"beacon",
		"/alerts",
		"/settings",
		"/help",
		"/legal",
	}
	for _, j := range junks {
		if strings.Contains(lu, j) {
			return true
		}
	}
	return false
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return l == "view job" || l == "apply" || l == "apply now" || l == "see all jobs"
}
