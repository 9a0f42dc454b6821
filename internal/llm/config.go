// Package llm wraps the hosted language model used to read resumes and widen search keywords.
package llm

import "time"

// ModelTier selects how capable (and how expensive) a model a call needs.
type ModelTier string

const (
	// TierLite serves short list-style answers such as keyword expansion.
	TierLite ModelTier = "lite"
	// TierStandard serves resume reading.
	TierStandard ModelTier = "standard"
)

// Config holds the model configuration for the application.
type Config struct {
	Models          map[ModelTier]string
	Temperature     float32
	MaxOutputTokens int32         // 0 leaves the provider default
	RequestTimeout  time.Duration // per call; 0 relies on the caller's context
}

// DefaultConfig returns the Gemini configuration used by the CLI and server.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
		Temperature:     0.2,
		MaxOutputTokens: 256,
		RequestTimeout:  60 * time.Second,
	}
}

// GetModel returns the model name for a tier, falling back to the standard then lite model.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a copy of the config with the tier bound to model.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := &Config{
		Models:          make(map[ModelTier]string, len(c.Models)+1),
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
		RequestTimeout:  c.RequestTimeout,
	}
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return next
}
