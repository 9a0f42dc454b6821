package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"GEMINI_API_KEY": "env-key", "DATABASE_URL": "postgres://env"}
	getenv := func(k string) string { return env[k] }

	cfg := config.Config{}
	applyEnv(&cfg, getenv)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)

	// Values already set are kept.
	cfg = config.Config{APIKey: "flag-key", DatabaseURL: "postgres://flag"}
	applyEnv(&cfg, getenv)
	assert.Equal(t, "flag-key", cfg.APIKey)
	assert.Equal(t, "postgres://flag", cfg.DatabaseURL)
}

func TestFinalizeConfig_Defaults(t *testing.T) {
	cfg, err := finalizeConfig(config.Config{})
	require.NoError(t, err)

	defaults := config.Defaults()
	assert.Equal(t, defaults.ListingBaseURL, cfg.ListingBaseURL)
	assert.Equal(t, "internship", cfg.Category)
	assert.Equal(t, "internshala_internships.csv", cfg.PostingsFile)
	assert.Equal(t, config.LedgerFile, cfg.LedgerBackend)
	assert.Equal(t, 1, cfg.MaxApplications)
	assert.Equal(t, 3, cfg.MaxConsecutiveFailures)
}

func TestFinalizeConfig_PostingsFileFollowsCategory(t *testing.T) {
	cfg, err := finalizeConfig(config.Config{Category: "job"})
	require.NoError(t, err)
	assert.Equal(t, "internshala_jobs.csv", cfg.PostingsFile)

	cfg, err = finalizeConfig(config.Config{Category: "job", PostingsFile: "mine.csv"})
	require.NoError(t, err)
	assert.Equal(t, "mine.csv", cfg.PostingsFile)
}

func TestFinalizeConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"unknown ledger", config.Config{LedgerBackend: "redis"}, "ledger_backend"},
		{"postgres without URL", config.Config{LedgerBackend: config.LedgerPostgres}, "database_url"},
		{"unknown category", config.Config{Category: "gig"}, "category"},
		{"negative cap", config.Config{MaxApplications: -1}, "max_applications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := finalizeConfig(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("category: job\nmax_applications: 4\nportfolio_link: https://example.com/me\n"), 0o644))

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")

	flagConfigPath = path
	t.Cleanup(func() {
		flagConfigPath = ""
		flagMaxApplications = 0
		_ = applyCmd.Flags().Set("max-applications", "0")
	})
	require.NoError(t, applyCmd.ParseFlags([]string{"--max-applications", "2"}))

	cfg, err := loadConfig(applyCmd)
	require.NoError(t, err)
	assert.Equal(t, "job", cfg.Category)
	assert.Equal(t, 2, cfg.MaxApplications, "explicit flag wins over the file")
	assert.Equal(t, "https://example.com/me", cfg.PortfolioLink)
	assert.True(t, strings.HasSuffix(cfg.PostingsFile, "internshala_jobs.csv"))
}
