package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stackmd/stackmd"
	"github.com/stackmd/stackmd/internal/api"
)

var (
	cfgURL         string
	cfgTokenID     string
	cfgTokenSecret string
	cfgCache       string
	cfgStrategy    string
	cfgFile        string
	outputJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "stackmd",
	Short: "stackmd - Markdown/BookStack synchronization CLI",
	Long: `stackmd synchronizes a tree of Markdown documents with a BookStack
wiki, keeping a local cache of the remote shelf/book/chapter/page
hierarchy and per-page sync state.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgURL, "url", "", "BookStack base URL")
	rootCmd.PersistentFlags().StringVar(&cfgTokenID, "token-id", "", "BookStack API token id")
	rootCmd.PersistentFlags().StringVar(&cfgTokenSecret, "token-secret", "", "BookStack API token secret")
	rootCmd.PersistentFlags().StringVar(&cfgCache, "cache", "", "Path to local cache database (default: ~/.stackmd/cache.db)")
	rootCmd.PersistentFlags().StringVar(&cfgStrategy, "strategy", "", "Conflict strategy: local-wins, remote-wins, newest-wins, manual")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default: ~/.stackmd/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output results as JSON")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig layers flags over environment over config file over defaults.
func loadConfig() (stackmd.Config, error) {
	path := cfgFile
	if path == "" {
		path = os.Getenv("STACKMD_CONFIG")
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".stackmd", "config.toml")
		}
	}

	var fileCfg stackmd.Config
	if path != "" {
		var err error
		fileCfg, err = stackmd.LoadConfigFile(path)
		if err != nil {
			return stackmd.Config{}, err
		}
	}

	cfg := stackmd.DefaultConfig().
		Merge(fileCfg).
		Merge(stackmd.ConfigFromEnv()).
		Merge(stackmd.Config{
			BaseURL:     cfgURL,
			TokenID:     cfgTokenID,
			TokenSecret: cfgTokenSecret,
			CachePath:   cfgCache,
			Strategy:    stackmd.Strategy(cfgStrategy),
		})

	if err := cfg.Validate(); err != nil {
		return stackmd.Config{}, err
	}
	return cfg, nil
}

// newEngine builds the engine from the resolved configuration. The
// returned cleanup closes the store and any debug log file.
func newEngine(cfg stackmd.Config) (*stackmd.Engine, stackmd.Client, func(), error) {
	store, err := stackmd.Open(cfg.CachePath)
	if err != nil {
		return nil, nil, nil, err
	}

	var client stackmd.Client
	cleanup := func() { _ = store.Close() }

	if !cfg.IsOffline() {
		logger, err := stackmd.NewDebugLogger(cfg.Debug, cfg.DebugLogPath)
		if err != nil {
			_ = store.Close()
			return nil, nil, nil, err
		}
		client = api.NewHTTPClient(cfg.BaseURL, cfg.TokenID, cfg.TokenSecret).
			WithTimeout(cfg.RequestTimeout).
			WithDebugLogger(logger)
		cleanup = func() {
			_ = store.Close()
			_ = logger.Close()
		}
	}

	engine, err := stackmd.NewEngine(store, client, cfg.Strategy)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return engine, client, cleanup, nil
}

// requireOnline fails early for commands that need the remote API.
func requireOnline(cfg stackmd.Config) error {
	if cfg.IsOffline() {
		return fmt.Errorf("%w: set --url or STACKMD_URL", stackmd.ErrOffline)
	}
	return nil
}
