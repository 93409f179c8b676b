package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
)

var pullDryRun bool

var pullCmd = &cobra.Command{
	Use:   "pull <book-id> <directory>",
	Short: "Pull a BookStack book into a local directory of Markdown files",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bookID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || bookID <= 0 {
			return &stackmd.ValidationError{Field: "book-id", Message: "must be a positive integer"}
		}

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

		result, err := engine.SyncBookToDirectory(cmd.Context(), bookID, args[1], stackmd.PullOptions{
			DryRun: pullDryRun,
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
		printPullResult(cmd, result, pullDryRun)
		return resultError(result.Errors)
	},
}

func init() {
	pullCmd.Flags().BoolVar(&pullDryRun, "dry-run", false, "Report what would change without writing")
}
