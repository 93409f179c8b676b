package main

import (
	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
)

var (
	syncNoShelves  bool
	syncNoBooks    bool
	syncNoChapters bool
	syncNoPages    bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Refresh the local cache from the remote wiki structure",
	Long: `Fetches the shelf, book, chapter and page hierarchy from the remote
wiki and mirrors it into the local cache. Rows for entities that no
longer exist remotely are tombstoned rather than deleted, preserving
local sync state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireOnline(cfg); err != nil {
			return err
		}

		engine, _, cleanup, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := engine.RefreshStructure(cmd.Context(), stackmd.RefreshOptions{
			SkipShelves:  syncNoShelves,
			SkipBooks:    syncNoBooks,
			SkipChapters: syncNoChapters,
			SkipPages:    syncNoPages,
		})
		if err != nil {
			return err
		}

		if outputJSON {
			return outputAsJSON(cmd, result)
		}
		printRefreshResult(cmd, result)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncNoShelves, "no-shelves", false, "Skip shelf refresh")
	syncCmd.Flags().BoolVar(&syncNoBooks, "no-books", false, "Skip book refresh")
	syncCmd.Flags().BoolVar(&syncNoChapters, "no-chapters", false, "Skip chapter refresh")
	syncCmd.Flags().BoolVar(&syncNoPages, "no-pages", false, "Skip page refresh")
}
