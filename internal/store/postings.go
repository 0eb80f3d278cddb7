package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobagent-engine/internal/domain"
)

// ErrConstraint marks a uniqueness violation on (source, external_id). Seeing
// it means a bug elsewhere; the run must abort without committing.
var ErrConstraint = errors.New("postings uniqueness constraint violated")

// RunTx scopes all store writes of one ingestion run to a single transaction,
// so a run either commits whole or leaves the store at its last good state.
type RunTx struct {
	tx *sql.Tx
}

func (d *DB) BeginRun(ctx context.Context) (*RunTx, error) {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin run tx: %w", err)
	}
	return &RunTx{tx: tx}, nil
}

func (t *RunTx) Commit() error   { return t.tx.Commit() }
func (t *RunTx) Rollback() error { return t.tx.Rollback() }

// Upsert inserts a posting on first sighting (notified=0, seen_at=now) or
// overwrites the mutable fields of the existing row, leaving seen_at and
// notified untouched. Safe to call repeatedly with identical input.
func (t *RunTx) Upsert(ctx context.Context, source string, rec domain.RawRecord, now time.Time) (domain.Posting, bool, error) {
	p := domain.Posting{
		Source:      source,
		ExternalID:  rec.ExternalID,
		Title:       rec.Title,
		Company:     rec.Company,
		Location:    rec.Location,
		URL:         rec.URL,
		Description: rec.Description,
		PublishedAt: rec.PublishedAt,
		Salary:      rec.Salary,
		Raw:         rec.Raw,
	}

	var (
		id       int64
		seenAt   string
		notified int
	)
	err := t.tx.QueryRowContext(ctx, `
SELECT id, seen_at, notified FROM postings
WHERE source = ? AND external_id = ?;`,
		source, rec.ExternalID,
	).Scan(&id, &seenAt, &notified)

	switch {
	case err == sql.ErrNoRows:
		// stored at second precision; keep the in-memory copy identical
		p.SeenAt = now.UTC().Truncate(time.Second)
		res, ierr := t.tx.ExecContext(ctx, `
INSERT INTO postings (source, external_id, title, company, location, url, description, published_at, salary, raw, seen_at, notified)
VALUES (?,?,?,?,?,?,?,?,?,?,?,0);`,
			source, rec.ExternalID, rec.Title, rec.Company, rec.Location, rec.URL,
			rec.Description, timePtr(rec.PublishedAt), floatPtr(rec.Salary), rec.Raw,
			p.SeenAt.Format(time.RFC3339),
		)
		if ierr != nil {
			return domain.Posting{}, false, wrapConstraint(ierr)
		}
		p.ID, _ = res.LastInsertId()
		return p, true, nil

	case err != nil:
		return domain.Posting{}, false, fmt.Errorf("lookup posting: %w", err)
	}

	if _, uerr := t.tx.ExecContext(ctx, `
UPDATE postings
SET title = ?, company = ?, location = ?, url = ?, description = ?, published_at = ?, salary = ?, raw = ?
WHERE id = ?;`,
		rec.Title, rec.Company, rec.Location, rec.URL, rec.Description,
		timePtr(rec.PublishedAt), floatPtr(rec.Salary), rec.Raw, id,
	); uerr != nil {
		return domain.Posting{}, false, fmt.Errorf("update posting: %w", uerr)
	}

	p.ID = id
	p.Notified = notified != 0
	p.SeenAt, _ = time.Parse(time.RFC3339, seenAt)
	return p, false, nil
}

// IsNotified reports whether the posting has already been surfaced to output.
func (t *RunTx) IsNotified(ctx context.Context, id domain.Identity) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx, `
SELECT notified FROM postings WHERE source = ? AND external_id = ?;`,
		id.Source, id.ExternalID,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("posting %s/%s not found", id.Source, id.ExternalID)
	}
	if err != nil {
		return false, fmt.Errorf("read notified: %w", err)
	}
	return n != 0, nil
}

// MarkNotified flips notified to true. No-op if already set; never unsets.
func (t *RunTx) MarkNotified(ctx context.Context, id domain.Identity) error {
	_, err := t.tx.ExecContext(ctx, `
UPDATE postings SET notified = 1 WHERE source = ? AND external_id = ?;`,
		id.Source, id.ExternalID,
	)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

// GetPosting reads one row by identity outside a run transaction.
func (d *DB) GetPosting(ctx context.Context, id domain.Identity) (domain.Posting, error) {
	var (
		p         domain.Posting
		published sql.NullString
		salary    sql.NullFloat64
		seenAt    string
		notified  int
	)
	err := d.Pool.QueryRowContext(ctx, `
SELECT id, source, external_id, title, company, location, url, description, published_at, salary, raw, seen_at, notified
FROM postings WHERE source = ? AND external_id = ?;`,
		id.Source, id.ExternalID,
	).Scan(&p.ID, &p.Source, &p.ExternalID, &p.Title, &p.Company, &p.Location,
		&p.URL, &p.Description, &published, &salary, &p.Raw, &seenAt, &notified)
	if err != nil {
		return domain.Posting{}, err
	}

	if published.Valid {
		if ts, perr := time.Parse(time.RFC3339, published.String); perr == nil {
			p.PublishedAt = &ts
		}
	}
	if salary.Valid {
		v := salary.Float64
		p.Salary = &v
	}
	p.SeenAt, _ = time.Parse(time.RFC3339, seenAt)
	p.Notified = notified != 0
	return p, nil
}

// CountPostings returns the number of rows for one source ("" counts all).
func (d *DB) CountPostings(ctx context.Context, source string) (int, error) {
	q := `SELECT COUNT(*) FROM postings;`
	args := []any{}
	if source != "" {
		q = `SELECT COUNT(*) FROM postings WHERE source = ?;`
		args = append(args, source)
	}
	var n int
	if err := d.Pool.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func wrapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return fmt.Errorf("insert posting: %w", err)
}

func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func floatPtr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
