package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// LoadConfig builds the limiter configuration from RATE_LIMIT_* variables read through getenv.
// Unset or unparsable values keep their defaults.
func LoadConfig(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.bool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	budgets := DefaultBudgets()
	budgets[TierBrowser] = env.budget("RATE_LIMIT_BROWSER_PER_HOUR", budgets[TierBrowser])
	budgets[TierModel] = env.budget("RATE_LIMIT_MODEL_PER_HOUR", budgets[TierModel])
	budgets[TierAuth] = env.budget("RATE_LIMIT_AUTH_PER_MINUTE", budgets[TierAuth])

	return &Config{
		Enabled:         true,
		DefaultLimit:    env.int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		AllowList:       clientSet(getenv("RATE_LIMIT_ALLOW")),
		DenyList:        clientSet(getenv("RATE_LIMIT_DENY")),
		Budgets:         budgets,
	}
}

type envReader func(string) string

func (e envReader) int(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(e(key))); err == nil {
		return n
	}
	return def
}

func (e envReader) bool(key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(e(key))); err == nil {
		return b
	}
	return def
}

func (e envReader) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(e(key))); err == nil {
		return d
	}
	return def
}

// budget overrides only the limit; window and burst stay with the tier.
func (e envReader) budget(key string, def Budget) Budget {
	if n := e.int(key, -1); n >= 0 {
		def.Limit = n
		if def.Burst > n {
			def.Burst = n
		}
	}
	return def
}

// clientSet parses a comma-separated list of client addresses.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, c := range strings.Split(list, ",") {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = true
		}
	}
	return set
}
