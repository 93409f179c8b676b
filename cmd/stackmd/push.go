package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
)

var (
	pushBookID int64
	pushDryRun bool
)

var pushCmd = &cobra.Command{
	Use:   "push <directory>",
	Short: "Push local Markdown files into a BookStack book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireOnline(cfg); err != nil {
			return err
		}
		if pushBookID <= 0 {
			return fmt.Errorf("--book is required and must be a positive id")
		}

		engine, _, cleanup, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := engine.SyncDirectory(cmd.Context(), args[0], pushBookID, stackmd.PushOptions{
			DryRun: pushDryRun,
		})
		if err != nil {
			return err
		}

		if outputJSON {
			if err := outputAsJSON(cmd, result); err != nil {
				return err
			}
			return resultError(result.Errors)
		}
		printPushResult(cmd, result, pushDryRun)
		return resultError(result.Errors)
	},
}

func init() {
	pushCmd.Flags().Int64Var(&pushBookID, "book", 0, "Target book id (required)")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "Report what would change without writing")
}
