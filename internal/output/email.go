package output

import (
	"fmt"
	"net/smtp"
	"strings"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
)

// EmailNotifier sends a plain-text digest of newly eligible postings over
// SMTP. Best-effort, like Slack: runs only after the store commit.
type EmailNotifier struct {
	Cfg    config.EmailNotify
	Secret func(account string) (string, error)
}

func (e *EmailNotifier) Notify(report domain.RunReport) error {
	if len(report.Eligible) == 0 {
		return nil
	}

	account := e.Cfg.KeyringAccount
	if account == "" {
		account = fmt.Sprintf("smtp:%s@%s", e.Cfg.Username, e.Cfg.SMTPHost)
	}
	password, err := e.Secret(account)
	if err != nil {
		return fmt.Errorf("smtp password: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.Cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(e.Cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %d new job match(es)\r\n", len(report.Eligible))
	b.WriteString("\r\n")
	for _, c := range report.Eligible {
		p := c.Posting
		fmt.Fprintf(&b, "- %s — %s (%s)\r\n  %s\r\n\r\n", p.Title, p.Company, p.Location, p.URL)
	}

	addr := fmt.Sprintf("%s:%d", e.Cfg.SMTPHost, e.Cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.Cfg.Username, password, e.Cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, e.Cfg.From, e.Cfg.To, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
