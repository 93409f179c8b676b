package main

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache statistics and last sync time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		engine, _, cleanup, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		stats, err := engine.Store().Stats()
		if err != nil {
			return err
		}

		if outputJSON {
			return outputAsJSON(cmd, stats)
		}
		printStats(cmd, cfg, stats)
		return nil
	},
}
