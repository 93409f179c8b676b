package main

import (
	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Starts a Model Context Protocol server exposing wiki search, page
reads and sync status as tools. Communicates over stdin/stdout, so all
diagnostics go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		engine, client, cleanup, err := newEngine(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		srv := mcp.NewServer(engine, client)
		return srv.Run()
	},
}
