package stackmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config configures the stackmd engine and API client.
type Config struct {
	// BaseURL is the root URL of the BookStack instance.
	// If empty, only cache-local operations are available.
	BaseURL string `toml:"url"`

	// TokenID and TokenSecret authenticate against the BookStack API.
	TokenID     string `toml:"token_id"`
	TokenSecret string `toml:"token_secret"`

	// CachePath is the path to the local SQLite cache.
	// Defaults to ~/.stackmd/cache.db.
	CachePath string `toml:"cache_path"`

	// Strategy selects conflict handling for push runs.
	// Defaults to newest-wins.
	Strategy Strategy `toml:"strategy"`

	// RequestTimeout bounds each remote API request.
	// Defaults to 30 seconds.
	RequestTimeout time.Duration `toml:"-"`

	// Debug enables verbose logging of all API communications.
	Debug bool `toml:"debug"`

	// DebugLogPath is the path to write debug logs.
	// Defaults to stderr if empty.
	DebugLogPath string `toml:"debug_log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CachePath:      DefaultCachePath(),
		Strategy:       StrategyNewestWins,
		RequestTimeout: 30 * time.Second,
	}
}

// DefaultCachePath returns the default cache location: ~/.stackmd/cache.db,
// falling back to ./.stackmd/cache.db when the home directory is unknown.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".stackmd", "cache.db")
}

// ConfigFromEnv reads configuration from environment variables.
//
//	STACKMD_URL          → BaseURL
//	STACKMD_TOKEN_ID     → TokenID
//	STACKMD_TOKEN_SECRET → TokenSecret
//	STACKMD_CACHE        → CachePath
//	STACKMD_STRATEGY     → Strategy
//	STACKMD_DEBUG        → Debug (any non-empty value enables)
//	STACKMD_DEBUG_LOG    → DebugLogPath
func ConfigFromEnv() Config {
	return Config{
		BaseURL:      os.Getenv("STACKMD_URL"),
		TokenID:      os.Getenv("STACKMD_TOKEN_ID"),
		TokenSecret:  os.Getenv("STACKMD_TOKEN_SECRET"),
		CachePath:    os.Getenv("STACKMD_CACHE"),
		Strategy:     Strategy(os.Getenv("STACKMD_STRATEGY")),
		Debug:        os.Getenv("STACKMD_DEBUG") != "",
		DebugLogPath: os.Getenv("STACKMD_DEBUG_LOG"),
	}
}

// LoadConfigFile reads a TOML config file. A missing file is not an
// error; it returns a zero Config.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Merge overlays non-zero fields of other onto c and returns the result.
// Used to layer flags over environment over config file over defaults.
func (c Config) Merge(other Config) Config {
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.TokenID != "" {
		c.TokenID = other.TokenID
	}
	if other.TokenSecret != "" {
		c.TokenSecret = other.TokenSecret
	}
	if other.CachePath != "" {
		c.CachePath = other.CachePath
	}
	if other.Strategy != "" {
		c.Strategy = other.Strategy
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.Debug {
		c.Debug = true
	}
	if other.DebugLogPath != "" {
		c.DebugLogPath = other.DebugLogPath
	}
	return c
}

// WithDefaults fills in default values for unset fields.
func (c Config) WithDefaults() Config {
	return DefaultConfig().Merge(c)
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.CachePath == "" {
		return &ValidationError{Field: "CachePath", Message: "required: path to SQLite cache"}
	}
	if c.BaseURL != "" && (c.TokenID == "" || c.TokenSecret == "") {
		return &ValidationError{Field: "TokenID", Message: "token id and secret required when url is set"}
	}
	if c.Strategy != "" && !c.Strategy.IsValid() {
		return &ValidationError{Field: "Strategy", Message: fmt.Sprintf("unknown strategy %q", c.Strategy)}
	}
	if c.RequestTimeout < 0 {
		return &ValidationError{Field: "RequestTimeout", Message: "must be non-negative"}
	}
	return nil
}

// IsOffline returns true if no remote instance is configured.
func (c *Config) IsOffline() bool {
	return c.BaseURL == ""
}
