// Package mailbox implements a source adapter over an IMAP mailbox that
// receives job-alert mail. Unseen messages are scanned for job links; the
// records it emits carry no native id, so identity falls back to the
// (url, title) hash.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/source"
)

const maxMessages = 50

func init() {
	source.Register("mailbox", func(cfg config.SourceConfig, deps source.Deps) (source.Fetcher, error) {
		if deps.Secret == nil {
			return nil, errors.New("mailbox source needs a secret resolver")
		}
		return New(cfg.Name, cfg.IMAP, deps.Secret), nil
	})
}

type Fetcher struct {
	name   string
	cfg    config.IMAPConfig
	secret func(account string) (string, error)
}

func New(name string, cfg config.IMAPConfig, secret func(string) (string, error)) *Fetcher {
	return &Fetcher{name: name, cfg: cfg, secret: secret}
}

func (f *Fetcher) Name() string { return f.name }

func (f *Fetcher) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	account := f.cfg.KeyringAccount
	if account == "" {
		account = fmt.Sprintf("imap:%s@%s", f.cfg.Username, f.cfg.Host)
	}
	password, err := f.secret(account)
	if err != nil {
		return nil, fmt.Errorf("mailbox password: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", f.cfg.Host, f.cfg.Port)
	c, err := imapclient.DialTLS(addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: f.cfg.Host},
	})
	if err != nil {
		return nil, fmt.Errorf("imap dial tls: %w", err)
	}
	defer func() { _ = c.Close() }()

	// best-effort close on cancel so a hung server doesn't stall the run
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(f.cfg.Username, password).Wait(); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	defer func() {
		if err := c.Logout().Wait(); err != nil {
			log.Printf("[source:%s] imap logout: %v", f.name, err)
		}
	}()

	if _, err := c.Select(f.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		return nil, fmt.Errorf("imap select %s: %w", f.cfg.Mailbox, err)
	}

	msgs, err := f.fetchUnseen(ctx, c)
	if err != nil {
		return nil, err
	}

	var out []domain.RawRecord
	for _, m := range msgs {
		if !f.subjectMatches(m.subject) {
			continue
		}
		recs := recordsFromMessage(m)
		out = append(out, recs...)
	}
	log.Printf("[source:%s] %d message(s), %d link(s)", f.name, len(msgs), len(out))
	return out, nil
}

type message struct {
	subject string
	date    time.Time
	raw     []byte
}

func (f *Fetcher) fetchUnseen(ctx context.Context, c *imapclient.Client) ([]message, error) {
	// alerts older than the staleness horizon would be filtered out anyway
	cutoff := time.Now().AddDate(0, -1, 0)

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   cutoff,
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	// newest first
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > maxMessages {
		uids = uids[:maxMessages]
	}

	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true, // don't flip \Seen; the notification gate is the dedupe
	}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	var out []message
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		var m message
		if buf.Envelope != nil {
			m.subject = buf.Envelope.Subject
			m.date = buf.Envelope.Date
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.raw = append([]byte(nil), b...)
		}
		out = append(out, m)
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

func (f *Fetcher) subjectMatches(subject string) bool {
	if len(f.cfg.SubjectAny) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, want := range f.cfg.SubjectAny {
		if strings.Contains(s, strings.ToLower(want)) {
			return true
		}
	}
	return false
}
