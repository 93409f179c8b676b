package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCount int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the remote wiki",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := requireOnline(cfg); err != nil {
			return err
		}

		_, client, cleanup, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		query := strings.Join(args, " ")
		results, err := client.Search(cmd.Context(), query, 1, searchCount)
		if err != nil {
			return err
		}

		if outputJSON {
			return outputAsJSON(cmd, results)
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			printMuted(out, "No results.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "%s %s %s\n",
				styled(labelStyle, r.Name),
				styled(mutedStyle, fmt.Sprintf("[%s #%d]", r.Type, r.ID)),
				r.URL)
			if r.Preview != "" {
				fmt.Fprintf(out, "  %s\n", styled(mutedStyle, r.Preview))
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchCount, "count", 20, "Maximum results to return")
}
