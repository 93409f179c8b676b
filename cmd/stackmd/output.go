package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
)

// outputAsJSON writes any value as formatted JSON to the command's stdout.
func outputAsJSON(cmd *cobra.Command, v interface{}) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError prints an error to stderr, ensuring no API tokens are leaked.
func outputError(w io.Writer, err error) {
	msg := scrubSensitiveData(err.Error())
	fmt.Fprintf(w, "Error: %s\n", msg)
}

// resultError turns a run's per-item error list into a nonzero exit.
// The per-kind counts are still printed first; a run with item failures
// reports both.
func resultError(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d item(s) failed", len(errs))
}

// scrubSensitiveData removes potential API tokens from error messages.
// The library already avoids including tokens, but this is defense in depth.
func scrubSensitiveData(msg string) string {
	for _, secret := range []string{cfgTokenSecret, os.Getenv("STACKMD_TOKEN_SECRET")} {
		if secret != "" && strings.Contains(msg, secret) {
			msg = strings.ReplaceAll(msg, secret, "[REDACTED]")
		}
	}
	return msg
}

// printPushResult prints push results in human-readable format.
func printPushResult(cmd *cobra.Command, result *stackmd.PushResult, dryRun bool) {
	out := cmd.OutOrStdout()

	verb := "Push complete"
	if dryRun {
		verb = "Push (dry run)"
	}
	printSuccess(out, "%s: %d created, %d updated, %d skipped",
		verb, result.Created, result.Updated, result.Skipped)

	if len(result.Conflicts) > 0 {
		printWarning(out, "%d conflicts need manual resolution (run %s):",
			len(result.Conflicts), result.Conflicts[0].RunID)
		for _, c := range result.Conflicts {
			fmt.Fprintf(out, "  %s (page #%d): %s\n", c.LocalPath, c.PageRemoteID, c.Reason)
		}
	}
	printErrors(out, result.Errors)
}

// printPullResult prints pull results in human-readable format.
func printPullResult(cmd *cobra.Command, result *stackmd.PullResult, dryRun bool) {
	out := cmd.OutOrStdout()

	verb := "Pull complete"
	if dryRun {
		verb = "Pull (dry run)"
	}
	printSuccess(out, "%s: %d created, %d updated, %d skipped",
		verb, result.Created, result.Updated, result.Skipped)
	printErrors(out, result.Errors)
}

// printRefreshResult prints structure refresh counters per entity kind.
func printRefreshResult(cmd *cobra.Command, result *stackmd.RefreshResult) {
	out := cmd.OutOrStdout()

	printSuccess(out, "Cache refreshed")
	printKindResult(out, "Shelves", result.Shelves)
	printKindResult(out, "Books", result.Books)
	printKindResult(out, "Chapters", result.Chapters)
	printKindResult(out, "Pages", result.Pages)
}

func printKindResult(w io.Writer, label string, r stackmd.KindResult) {
	line := fmt.Sprintf("  %-9s %d synced, %d deleted", label, r.Synced, r.Deleted)
	if r.Skipped > 0 {
		line += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	fmt.Fprintln(w, line)
}

// printStats prints cache statistics in human-readable format.
func printStats(cmd *cobra.Command, cfg stackmd.Config, stats *stackmd.CacheStats) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Cache: %s (schema %s)\n", stats.Path, stats.SchemaVersion)
	if stats.LastSync.IsZero() {
		printMuted(out, "Last sync: never")
	} else {
		fmt.Fprintf(out, "Last sync: %s\n", stats.LastSync.Local().Format(time.RFC3339))
	}
	if cfg.IsOffline() {
		printMuted(out, "Remote: not configured (offline)")
	} else {
		fmt.Fprintf(out, "Remote: %s\n", cfg.BaseURL)
	}
	printKindStats(out, "Shelves", stats.Shelves)
	printKindStats(out, "Books", stats.Books)
	printKindStats(out, "Chapters", stats.Chapters)
	printKindStats(out, "Pages", stats.Pages)
}

func printKindStats(w io.Writer, label string, s stackmd.KindStats) {
	fmt.Fprintf(w, "  %-9s %d active", label, s.Active)
	if s.Deleted > 0 {
		fmt.Fprintf(w, " (%d deleted)", s.Deleted)
	}
	fmt.Fprintln(w)
}

func printErrors(w io.Writer, errs []string) {
	if len(errs) == 0 {
		return
	}
	printWarning(w, "%d items failed:", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
