package mailbox

import (
	"strings"
	"testing"
	"time"

	"jobagent-engine/internal/config"
)

const alertHTML = `<html><body>
<a href="https://boards.example.com/acme/jobs/4021">Senior Go Engineer</a>
<a href="https://boards.example.com/acme/jobs/4021">Senior Go Engineer</a>
<a href="https://example.com/unsubscribe?u=1">Unsubscribe</a>
<a href="https://example.com/privacy">Privacy</a>
<a href="https://blog.example.com/post/10-tips">10 tips</a>
<a href="https://globex.example.com/careers/55">Apply</a>
</body></html>`

func rawMessage(contentType, body string) []byte {
	return []byte("From: alerts@example.com\r\n" +
		"Subject: New jobs for you\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"\r\n" + body)
}

func TestRecordsFromHTMLMessage(t *testing.T) {
	m := message{
		subject: "New jobs for you",
		date:    time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		raw:     rawMessage("text/html; charset=utf-8", alertHTML),
	}

	recs := recordsFromMessage(m)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2 (job links only, deduped)", len(recs))
	}

	if recs[0].URL != "https://boards.example.com/acme/jobs/4021" {
		t.Errorf("url = %q", recs[0].URL)
	}
	if recs[0].Title != "Senior Go Engineer" {
		t.Errorf("title = %q", recs[0].Title)
	}
	if recs[0].ExternalID != "" {
		t.Error("mailbox records must have no native id")
	}
	if recs[0].PublishedAt == nil || !recs[0].PublishedAt.Equal(m.date) {
		t.Errorf("published_at = %v, want message date", recs[0].PublishedAt)
	}

	// junk anchor text falls back to the subject
	if recs[1].Title != "New jobs for you" {
		t.Errorf("junk-title fallback = %q", recs[1].Title)
	}
}

func TestRecordsFromMultipartMessage(t *testing.T) {
	body := strings.Join([]string{
		"--BOUND",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"See https://boards.example.com/jobs/77 for details.",
		"--BOUND",
		"Content-Type: text/html; charset=utf-8",
		"",
		`<a href="https://boards.example.com/jobs/77">Platform Engineer</a>`,
		"--BOUND--",
		"",
	}, "\r\n")
	m := message{
		subject: "alert",
		raw:     rawMessage(`multipart/alternative; boundary=BOUND`, body),
	}

	recs := recordsFromMessage(m)
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1 (html anchor and naked url dedupe)", len(recs))
	}
	if recs[0].Title != "Platform Engineer" {
		t.Errorf("title = %q", recs[0].Title)
	}
}

func TestSubjectFilter(t *testing.T) {
	f := New("alerts", configWithSubjects([]string{"job alert"}), nil)
	if !f.subjectMatches("Daily JOB ALERT: 12 new postings") {
		t.Error("case-insensitive subject match failed")
	}
	if f.subjectMatches("Your invoice") {
		t.Error("unrelated subject matched")
	}

	open := New("alerts", configWithSubjects(nil), nil)
	if !open.subjectMatches("anything") {
		t.Error("empty subject_any must match every message")
	}
}

func configWithSubjects(subjects []string) (c config.IMAPConfig) {
	c.Host = "imap.example.com"
	c.Port = 993
	c.Username = "u"
	c.Mailbox = "INBOX"
	c.SubjectAny = subjects
	return c
}
