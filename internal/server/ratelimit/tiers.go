package ratelimit

import "time"

// Tier groups routes that draw from one shared budget per client.
type Tier string

// Tiers
const (
	// TierBrowser routes start an apply run in the operator's browser.
	TierBrowser Tier = "browser"
	// TierModel routes call the model or scrape the listing site.
	TierModel Tier = "model"
	// TierAuth guards the operator password check.
	TierAuth Tier = "auth"
	// TierOpen routes are never limited.
	TierOpen Tier = "open"
	// TierDefault is every route not listed in routeTiers. Its budget is per route.
	TierDefault Tier = ""
)

// Budget is how many requests a client may make per window, with a burst allowance.
type Budget struct {
	Limit  int
	Window time.Duration
	Burst  int // Limit when zero
}

func (b Budget) unlimited() bool {
	return b.Limit <= 0 || b.Window <= 0
}

var routeTiers = map[string]Tier{
	"POST /auto-apply":        TierBrowser,
	"POST /auto-apply/stream": TierBrowser,
	"POST /run/stream":        TierBrowser,
	"POST /analyze-resume":    TierModel,
	"POST /scrape-jobs":       TierModel,
	"POST /auth/token":        TierAuth,
	"GET /health":             TierOpen,
}

// TierFor returns the tier of a route. Preflight requests are open on every path.
func TierFor(method, path string) Tier {
	if method == "OPTIONS" {
		return TierOpen
	}
	return routeTiers[method+" "+path]
}

// DefaultBudgets returns the per-tier budgets used when the environment sets none.
func DefaultBudgets() map[Tier]Budget {
	return map[Tier]Budget{
		TierBrowser: {Limit: 10, Window: time.Hour, Burst: 2},
		TierModel:   {Limit: 30, Window: time.Hour, Burst: 5},
		TierAuth:    {Limit: 10, Window: time.Minute, Burst: 5},
	}
}
