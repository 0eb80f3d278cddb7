package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/ingest"
	"jobagent-engine/internal/secrets"
	"jobagent-engine/internal/source"
	"jobagent-engine/internal/store"

	// adapter variants register themselves with the source registry
	_ "jobagent-engine/internal/source/mailbox"
	_ "jobagent-engine/internal/source/remotive"
	_ "jobagent-engine/internal/source/rss"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "agent",
	Short: "Job agent — collect, dedupe and surface new job postings",
	Long: "agent periodically pulls postings from configured sources, deduplicates\n" +
		"them across runs and reports each distinct posting at most once.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBAGENT_CONFIG env var or ./config.yml)")
	rootCmd.AddCommand(runCmd, watchCmd, secretCmd)
}

// loadConfig resolves the config path, parses and validates it. Any
// validation error is fatal before a run starts.
func loadConfig() (config.Config, error) {
	path := cfgPath
	if path == "" {
		if env := os.Getenv("JOBAGENT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	cfg, res := normalizeReport(cfg)
	if !res.OK() {
		return cfg, fmt.Errorf("invalid config %s: %s", path, res.Error())
	}
	return cfg, nil
}

// normalizeReport validates and prints warnings to stderr.
func normalizeReport(cfg config.Config) (config.Config, config.Validation) {
	out, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return out, res
}

// setupRun builds everything a run needs from config: the store (migrated)
// and the source adapters in config order.
func setupRun(cfg config.Config) (ingest.RunContext, func(), error) {
	if err := os.MkdirAll(cfg.App.DataDir, 0o755); err != nil {
		return ingest.RunContext{}, nil, err
	}

	db, err := store.Open(filepath.Join(cfg.App.DataDir, "postings.db"))
	if err != nil {
		return ingest.RunContext{}, nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(db.Pool); err != nil {
		_ = db.Close()
		return ingest.RunContext{}, nil, fmt.Errorf("migrate store: %w", err)
	}

	fetchers, err := source.Build(cfg.Sources, source.Deps{
		Limiter: source.NewHostLimiter(1.0, 2),
		Secret:  secrets.Get,
	})
	if err != nil {
		_ = db.Close()
		return ingest.RunContext{}, nil, err
	}

	rc := ingest.RunContext{
		Store:    db,
		Cfg:      cfg,
		Fetchers: fetchers,
	}
	return rc, func() { _ = db.Close() }, nil
}
