package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <page-id>",
	Short: "Export a remote page in the given format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || pageID <= 0 {
			return &stackmd.ValidationError{Field: "page-id", Message: "must be a positive integer"}
		}
		format := stackmd.ExportFormat(exportFormat)
		if !format.IsValid() {
			return &stackmd.ValidationError{
				Field:   "format",
				Message: fmt.Sprintf("unknown format %q, expected one of: markdown, html, pdf, plaintext, zip", exportFormat),
			}
		}

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

		content, err := client.ExportPage(cmd.Context(), pageID, format)
		if err != nil {
			return err
		}
		if format == stackmd.FormatMarkdown {
			content = []byte(stackmd.DecodeAnchors(string(content)))
		}

		if exportOutput != "" {
			return os.WriteFile(exportOutput, content, 0o644)
		}

		// Render markdown for the terminal, raw bytes everywhere else.
		if format == stackmd.FormatMarkdown && isTTY() {
			rendered, err := glamour.Render(string(content), "auto")
			if err == nil {
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			}
		}
		_, err = cmd.OutOrStdout().Write(content)
		return err
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "markdown", "Export format: markdown, html, pdf, plaintext, zip")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}
