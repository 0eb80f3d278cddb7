package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run on a schedule (watch.cron, default daily at 08:00)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		c := cron.New()
		_, err = c.AddFunc(cfg.Watch.Cron, func() {
			// re-read the config so edits take effect on the next tick
			tickCfg, err := loadConfig()
			if err != nil {
				log.Printf("[watch] config reload failed: %v", err)
				return
			}
			if err := executeRun(cmd.Context(), tickCfg); err != nil {
				log.Printf("[watch] run failed: %v", err)
			}
		})
		if err != nil {
			return err
		}

		c.Start()
		defer c.Stop()
		log.Printf("[watch] scheduled %q", cfg.Watch.Cron)

		// run immediately too, like a first tick
		if err := executeRun(cmd.Context(), cfg); err != nil {
			log.Printf("[watch] run failed: %v", err)
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Printf("[watch] shutting down")
		return nil
	},
}
