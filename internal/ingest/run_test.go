package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/source"
	"jobagent-engine/internal/store"
)

type fakeFetcher struct {
	name string
	recs []domain.RawRecord
	err  error
}

func (f *fakeFetcher) Name() string { return f.name }
func (f *fakeFetcher) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	return f.recs, f.err
}

func newTestStore(t *testing.T) *store.DB {
	t.Helper()
	d, err := store.Open(filepath.Join(t.TempDir(), "run.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := store.Migrate(d.Pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return d
}

func runWith(t *testing.T, d *store.DB, cfg config.Config, fetchers ...source.Fetcher) domain.RunReport {
	t.Helper()
	report, err := Run(context.Background(), RunContext{
		Store:    d,
		Cfg:      cfg,
		Fetchers: fetchers,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func matchAllCfg() config.Config {
	cfg := config.Config{StalenessDays: 10}
	return cfg
}

func TestRunNotifiesNewPostingsOnce(t *testing.T) {
	d := newTestStore(t)
	f := &fakeFetcher{name: "boards", recs: []domain.RawRecord{
		{ExternalID: "1", Title: "Go Engineer", URL: "https://x.example/1"},
		{ExternalID: "2", Title: "Python Engineer", URL: "https://x.example/2"},
	}}

	first := runWith(t, d, matchAllCfg(), f)
	if first.TotalProcessed != 2 || first.NewlyNotified != 2 {
		t.Fatalf("first run: processed=%d notified=%d, want 2/2",
			first.TotalProcessed, first.NewlyNotified)
	}

	// Same postings fetched again: processed, but never re-announced.
	second := runWith(t, d, matchAllCfg(), f)
	if second.TotalProcessed != 2 {
		t.Errorf("second run processed = %d, want 2", second.TotalProcessed)
	}
	if second.NewlyNotified != 0 || len(second.Eligible) != 0 {
		t.Errorf("second run re-announced: notified=%d eligible=%d",
			second.NewlyNotified, len(second.Eligible))
	}
}

func TestRunPartialSourceFailure(t *testing.T) {
	d := newTestStore(t)
	bad := &fakeFetcher{name: "down", err: errors.New("connection refused")}
	good := &fakeFetcher{name: "up", recs: []domain.RawRecord{
		{ExternalID: "ok-1", Title: "Backend Engineer", URL: "https://x.example/ok"},
	}}

	report := runWith(t, d, matchAllCfg(), bad, good)
	if report.TotalProcessed != 1 {
		t.Errorf("processed = %d, want 1 (failing source contributes zero)", report.TotalProcessed)
	}
	if report.NewlyNotified != 1 {
		t.Errorf("notified = %d, want 1", report.NewlyNotified)
	}
}

func TestRunFilteredThenPassesLater(t *testing.T) {
	d := newTestStore(t)
	f := &fakeFetcher{name: "boards", recs: []domain.RawRecord{
		{ExternalID: "late-1", Title: "Rust Engineer", URL: "https://x.example/r"},
	}}

	strict := matchAllCfg()
	strict.Filters.IncludeKeywords = []string{"python"}
	first := runWith(t, d, strict, f)
	if first.NewlyNotified != 0 {
		t.Fatalf("filtered posting was notified: %d", first.NewlyNotified)
	}

	// Config widens between runs; the gate tracks notified, not "ever seen",
	// so the posting is still notifiable now.
	relaxed := matchAllCfg()
	relaxed.Filters.IncludeKeywords = []string{"rust"}
	second := runWith(t, d, relaxed, f)
	if second.NewlyNotified != 1 {
		t.Errorf("posting passing filters on a later run was not notified")
	}
}

func TestRunResolvesMissingIDs(t *testing.T) {
	d := newTestStore(t)
	rec := domain.RawRecord{Title: "Engineer", URL: "https://x.example/no-id"}
	f := &fakeFetcher{name: "mail", recs: []domain.RawRecord{rec}}

	runWith(t, d, matchAllCfg(), f)
	// fetching the identical record again must collapse to one row
	runWith(t, d, matchAllCfg(), f)

	n, err := d.CountPostings(context.Background(), "mail")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1 (hash fallback must be deterministic)", n)
	}
}

func TestRunOrdersEligibleByScore(t *testing.T) {
	d := newTestStore(t)
	f := &fakeFetcher{name: "boards", recs: []domain.RawRecord{
		{ExternalID: "low", Title: "Engineer", URL: "u1"},
		{ExternalID: "high", Title: "Python Backend Engineer", Location: "Remote", URL: "u2"},
	}}

	cfg := matchAllCfg()
	cfg.Filters.IncludeKeywords = []string{"engineer", "python", "backend"}

	report := runWith(t, d, cfg, f)
	if len(report.Eligible) != 2 {
		t.Fatalf("eligible = %d, want 2", len(report.Eligible))
	}
	if report.Eligible[0].Posting.ExternalID != "high" {
		t.Errorf("eligible[0] = %q, want the higher-scored posting first",
			report.Eligible[0].Posting.ExternalID)
	}
	if report.Eligible[0].Score <= report.Eligible[1].Score {
		t.Errorf("scores not descending: %d then %d",
			report.Eligible[0].Score, report.Eligible[1].Score)
	}
}

func TestRunDuplicateRecordWithinBatch(t *testing.T) {
	d := newTestStore(t)
	rec := domain.RawRecord{ExternalID: "dup", Title: "Engineer", URL: "u"}
	f := &fakeFetcher{name: "boards", recs: []domain.RawRecord{rec, rec}}

	report := runWith(t, d, matchAllCfg(), f)
	if report.TotalProcessed != 2 {
		t.Errorf("processed = %d, want 2", report.TotalProcessed)
	}
	if report.NewlyNotified != 1 {
		t.Errorf("notified = %d, want 1 (gate dedupes within a run too)", report.NewlyNotified)
	}

	n, _ := d.CountPostings(context.Background(), "boards")
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestRunStaleRecordsRejected(t *testing.T) {
	d := newTestStore(t)
	old := time.Now().AddDate(0, 0, -20).UTC()
	f := &fakeFetcher{name: "boards", recs: []domain.RawRecord{
		{ExternalID: "old", Title: "Engineer", URL: "u", PublishedAt: &old},
	}}

	report := runWith(t, d, matchAllCfg(), f) // staleness_days = 10
	if report.NewlyNotified != 0 {
		t.Errorf("stale posting was notified")
	}
	if report.TotalProcessed != 1 {
		t.Errorf("stale posting must still be upserted, processed = %d", report.TotalProcessed)
	}
}
