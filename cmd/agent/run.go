package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/ingest"
	"jobagent-engine/internal/output"
	"jobagent-engine/internal/runlock"
	"jobagent-engine/internal/secrets"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a single ingestion run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return executeRun(cmd.Context(), cfg)
	},
}

// executeRun performs one serialized run and feeds the sinks. Store commit
// happens inside ingest.Run; delivery failures after that are logged only.
func executeRun(ctx context.Context, cfg config.Config) error {
	lock := runlock.New(cfg.App.DataDir)
	if err := lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	rc, cleanup, err := setupRun(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := ingest.Run(ctx, rc)
	if err != nil {
		return err
	}

	// sinks: console and CSV always, chat/email best-effort
	output.WriteConsole(os.Stdout, report)

	if path, err := output.WriteCSV(cfg.App.OutDir, report); err != nil {
		log.Printf("[csv] write failed: %v", err)
	} else {
		log.Printf("[csv] wrote %s (%d row(s))", path, len(report.Eligible))
	}

	if cfg.Notify.SlackWebhook != "" {
		if err := output.NewSlackNotifier(cfg.Notify.SlackWebhook).Notify(report); err != nil {
			log.Printf("[notify] slack failed: %v", err)
		}
	}
	if cfg.Notify.Email.Enabled {
		mailer := &output.EmailNotifier{Cfg: cfg.Notify.Email, Secret: secrets.Get}
		if err := mailer.Notify(report); err != nil {
			log.Printf("[notify] email failed: %v", err)
		}
	}

	return nil
}
