// Package ingest coordinates one ingestion run: fetch, identify, upsert,
// filter, score, and the notification gate.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/domain"
	"jobagent-engine/internal/identity"
	"jobagent-engine/internal/match"
	"jobagent-engine/internal/source"
	"jobagent-engine/internal/store"
)

const defaultFetchTimeout = 2 * time.Minute

// RunContext carries everything one run needs. No process-wide state: the
// store handle, configuration, and adapters all travel through here.
type RunContext struct {
	Store    *store.DB
	Cfg      config.Config
	Fetchers []source.Fetcher

	// FetchTimeout bounds each source so a hung fetch degrades to "skipped".
	FetchTimeout time.Duration
	// Now is the run clock; nil means time.Now.
	Now func() time.Time
}

// Run executes one ingestion run to completion and returns what the output
// sinks should consume. Source failures are isolated per source; only store
// failures abort, leaving the batch uncommitted.
func Run(ctx context.Context, rc RunContext) (domain.RunReport, error) {
	now := time.Now
	if rc.Now != nil {
		now = rc.Now
	}
	timeout := rc.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	// Fetch phase: sources run in parallel, results land in slots indexed
	// by config order so candidate ordering stays deterministic.
	batches := make([][]domain.RawRecord, len(rc.Fetchers))
	var g errgroup.Group
	for i, f := range rc.Fetchers {
		i, f := i, f
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			recs, err := f.Fetch(fctx)
			if err != nil {
				// partial-failure isolation: log, contribute nothing
				log.Printf("[source:%s] error: %v (skipping)", f.Name(), err)
				return nil
			}
			log.Printf("[source:%s] fetched %d record(s)", f.Name(), len(recs))
			batches[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	// Store phase: strictly sequential, one transaction for the whole run.
	tx, err := rc.Store.BeginRun(ctx)
	if err != nil {
		return domain.RunReport{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		touched []domain.Posting
		total   int
	)
	for i, f := range rc.Fetchers {
		for _, rec := range batches[i] {
			rec.ExternalID = identity.Resolve(rec.ExternalID, rec.URL, rec.Title)

			p, _, err := tx.Upsert(ctx, f.Name(), rec, now())
			if err != nil {
				return domain.RunReport{}, fmt.Errorf("upsert %s/%s: %w", f.Name(), rec.ExternalID, err)
			}
			touched = append(touched, p)
			total++
		}
	}

	// Filter + score over everything touched this run; records unchanged
	// since a previous run are still re-evaluated, config may have moved.
	var candidates []domain.RunCandidate
	nowT := now()
	for _, p := range touched {
		if !match.PassesFilters(p, rc.Cfg.Filters, rc.Cfg.StalenessDays, rc.Cfg.SalaryMin, nowT) {
			continue
		}
		candidates = append(candidates, domain.RunCandidate{
			Posting: p,
			Score:   match.Score(p, rc.Cfg.Filters),
		})
	}
	match.SortCandidates(candidates)

	// Notification gate: the one place guaranteeing at-most-once output.
	var eligible []domain.RunCandidate
	for _, c := range candidates {
		id := c.Posting.Identity()
		notified, err := tx.IsNotified(ctx, id)
		if err != nil {
			return domain.RunReport{}, err
		}
		if notified {
			continue
		}
		if err := tx.MarkNotified(ctx, id); err != nil {
			return domain.RunReport{}, err
		}
		eligible = append(eligible, c)
	}

	if err := tx.Commit(); err != nil {
		return domain.RunReport{}, fmt.Errorf("commit run: %w", err)
	}

	log.Printf("[ingest] processed=%d candidates=%d newly_notified=%d",
		total, len(candidates), len(eligible))

	return domain.RunReport{
		Eligible:       eligible,
		TotalProcessed: total,
		NewlyNotified:  len(eligible),
	}, nil
}
