package main

import (
	"fmt"
	"os"

	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/pipeline"
	"github.com/spf13/cobra"
)

// Flags shared by every subcommand. Explicitly set flags win over the config file.
var (
	flagConfigPath      string
	flagAPIKey          string
	flagCategory        string
	flagPostingsFile    string
	flagLedgerBackend   string
	flagDatabaseURL     string
	flagSQLitePath      string
	flagEmail           string
	flagMaxApplications int
	flagMaxFailures     int
	flagPortfolioLink   string
	flagUseBrowser      bool
	flagShowBrowser     bool
	flagVerbose         bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")
	pf.StringVar(&flagAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	pf.StringVar(&flagCategory, "category", "", "Listing category: internship or job")
	pf.StringVar(&flagPostingsFile, "postings", "", "Postings CSV written by scrape and read by apply")
	pf.StringVar(&flagLedgerBackend, "ledger", "", "Submission ledger backend: file, sqlite or postgres")
	pf.StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL for the postgres ledger (defaults to DATABASE_URL env var)")
	pf.StringVar(&flagSQLitePath, "sqlite", "", "SQLite database path for the sqlite ledger")
	pf.StringVar(&flagEmail, "email", "", "Listing site account email (defaults to INTERNSHALA_EMAIL env var)")
	pf.IntVar(&flagMaxApplications, "max-applications", 0, "Stop after this many confirmed applications")
	pf.IntVar(&flagMaxFailures, "max-failures", 0, "Stop after this many consecutive failed postings")
	pf.StringVar(&flagPortfolioLink, "portfolio", "", "Link typed into free-text application questions")
	pf.BoolVar(&flagUseBrowser, "use-browser", false, "Render listing pages in a headless browser when plain HTTP finds nothing")
	pf.BoolVar(&flagShowBrowser, "show-browser", false, "Show the apply browser window")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Print detailed debug information")
}

// loadConfig merges the config file, explicitly set flags, the environment and defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if flagConfigPath != "" {
		loaded, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
		if flagVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", flagConfigPath)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if flags.Changed("category") {
		cfg.Category = flagCategory
	}
	if flags.Changed("postings") {
		cfg.PostingsFile = flagPostingsFile
	}
	if flags.Changed("ledger") {
		cfg.LedgerBackend = flagLedgerBackend
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if flags.Changed("sqlite") {
		cfg.SQLitePath = flagSQLitePath
	}
	if flags.Changed("email") {
		cfg.Email = flagEmail
	}
	if flags.Changed("max-applications") {
		cfg.MaxApplications = flagMaxApplications
	}
	if flags.Changed("max-failures") {
		cfg.MaxConsecutiveFailures = flagMaxFailures
	}
	if flags.Changed("portfolio") {
		cfg.PortfolioLink = flagPortfolioLink
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = flagUseBrowser
	}
	if flags.Changed("show-browser") {
		cfg.ShowBrowser = flagShowBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = flagVerbose
	}

	applyEnv(&cfg, os.Getenv)
	return finalizeConfig(cfg)
}

// applyEnv fills secrets and connection strings the config left empty.
func applyEnv(cfg *config.Config, getenv func(string) string) {
	if cfg.APIKey == "" {
		cfg.APIKey = getenv("GEMINI_API_KEY")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = getenv("DATABASE_URL")
	}
}

// finalizeConfig applies defaults and validates the result.
func finalizeConfig(cfg config.Config) (config.Config, error) {
	defaults := config.Defaults()
	if cfg.PostingsFile == "" {
		category := cfg.Category
		if category == "" {
			category = defaults.Category
		}
		cfg.PostingsFile = config.PostingsFileFor(category)
	}
	cfg = cfg.MergeWithDefaults(defaults)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newService builds the pipeline service for a command.
func newService(cmd *cobra.Command) (*pipeline.Service, config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.Config{}, err
	}
	return pipeline.NewService(cfg, pipeline.Deps{}), cfg, nil
}
