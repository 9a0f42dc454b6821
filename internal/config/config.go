// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ledger backends
const (
	LedgerFile     = "file"
	LedgerSQLite   = "sqlite"
	LedgerPostgres = "postgres"
)

// Config represents the configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Listing
	ListingBaseURL string `json:"listing_base_url,omitempty" yaml:"listing_base_url,omitempty"` // Root of the listing site
	Category       string `json:"category,omitempty" yaml:"category,omitempty"`                 // "internship" or "job"
	FetchLimit     int    `json:"fetch_limit,omitempty" yaml:"fetch_limit,omitempty"`           // Max postings kept per scrape
	PostingsFile   string `json:"postings_file,omitempty" yaml:"postings_file,omitempty"`       // CSV written by scrape, read by apply
	UseBrowser     bool   `json:"use_browser,omitempty" yaml:"use_browser,omitempty"`           // Render listing pages in a headless browser when HTTP yields nothing

	// Ledger
	LedgerBackend string `json:"ledger_backend,omitempty" yaml:"ledger_backend,omitempty"` // file, sqlite or postgres
	LedgerLog     string `json:"ledger_log,omitempty" yaml:"ledger_log,omitempty"`         // Line-oriented canonical link log
	LedgerDetails string `json:"ledger_details,omitempty" yaml:"ledger_details,omitempty"` // JSON array of submission records
	SQLitePath    string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty"`
	DatabaseURL   string `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL

	// Apply
	MaxApplications        int    `json:"max_applications,omitempty" yaml:"max_applications,omitempty"`
	MaxConsecutiveFailures int    `json:"max_consecutive_failures,omitempty" yaml:"max_consecutive_failures,omitempty"`
	PortfolioLink          string `json:"portfolio_link,omitempty" yaml:"portfolio_link,omitempty"` // Typed into free-text question fields
	ShowBrowser            bool   `json:"show_browser,omitempty" yaml:"show_browser,omitempty"`     // Run the apply browser with a visible window

	// Overrides for the apply page's CSS selectors, keyed by name (apply_button, submit, ...)
	BrowserSelectors map[string]string `json:"browser_selectors,omitempty" yaml:"browser_selectors,omitempty"`

	// Behavior
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Gemini API key
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`     // Listing site account email
	Verbose bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListingBaseURL:         "https://internshala.com",
		Category:               "internship",
		FetchLimit:             5,
		PostingsFile:           "internshala_internships.csv",
		LedgerBackend:          LedgerFile,
		LedgerLog:              "submitted_log.txt",
		LedgerDetails:          "submitted_details.json",
		SQLitePath:             "submissions.db",
		MaxApplications:        1,
		MaxConsecutiveFailures: 3,
		PortfolioLink:          "https://drive.google.com/sample-portfolio",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	switch c.LedgerBackend {
	case "", LedgerFile, LedgerSQLite, LedgerPostgres:
	default:
		return fmt.Errorf("config error: unknown 'ledger_backend' %q (want file, sqlite or postgres)", c.LedgerBackend)
	}
	if c.LedgerBackend == LedgerPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' is required for the postgres ledger")
	}

	switch c.Category {
	case "", "internship", "job":
	default:
		return fmt.Errorf("config error: unknown 'category' %q (want internship or job)", c.Category)
	}

	// Validate numeric ranges
	if c.FetchLimit < 0 {
		return fmt.Errorf("config error: 'fetch_limit' must be non-negative")
	}
	if c.MaxApplications < 0 {
		return fmt.Errorf("config error: 'max_applications' must be non-negative")
	}
	if c.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("config error: 'max_consecutive_failures' must be non-negative")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	strs := []struct{ dst, def *string }{
		{&result.ListingBaseURL, &defaults.ListingBaseURL},
		{&result.Category, &defaults.Category},
		{&result.PostingsFile, &defaults.PostingsFile},
		{&result.LedgerBackend, &defaults.LedgerBackend},
		{&result.LedgerLog, &defaults.LedgerLog},
		{&result.LedgerDetails, &defaults.LedgerDetails},
		{&result.SQLitePath, &defaults.SQLitePath},
		{&result.DatabaseURL, &defaults.DatabaseURL},
		{&result.PortfolioLink, &defaults.PortfolioLink},
		{&result.APIKey, &defaults.APIKey},
		{&result.Email, &defaults.Email},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = *s.def
		}
	}

	// Int fields: use default if zero
	if result.FetchLimit == 0 {
		result.FetchLimit = defaults.FetchLimit
	}
	if result.MaxApplications == 0 {
		result.MaxApplications = defaults.MaxApplications
	}
	if result.MaxConsecutiveFailures == 0 {
		result.MaxConsecutiveFailures = defaults.MaxConsecutiveFailures
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// PostingsFileFor returns the CSV path used for a listing category.
func PostingsFileFor(category string) string {
	if category == "" {
		category = "internship"
	}
	return fmt.Sprintf("internshala_%ss.csv", category)
}
