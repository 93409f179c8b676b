package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
)

var cacheClearForce bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the local cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and per-entity counts",
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

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cache database",
	Long: `Removes the cache database and its WAL sidecar files. All sync state
is lost; the next structure sync rebuilds the cache from the remote
wiki, but local path bindings and content hashes cannot be recovered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cacheClearForce {
			return fmt.Errorf("refusing to delete %s without --force", cfg.CachePath)
		}

		store, err := stackmd.Open(cfg.CachePath)
		if err != nil {
			return err
		}
		if err := store.Destroy(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", cfg.CachePath)
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().BoolVar(&cacheClearForce, "force", false, "Confirm deletion")
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
