package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultJWTIssuer is stamped into operator tokens when JWT_ISSUER is unset.
const DefaultJWTIssuer = "intern-autoapply"

// Operator token lifetime bounds
const (
	DefaultJWTTTL = 12 * time.Hour
	MinJWTTTL     = time.Minute
	MaxJWTTTL     = 7 * 24 * time.Hour
)

// JWTConfig holds the signing secret and lifetime of operator tokens.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// NewJWTConfig reads JWT_SECRET (required, 16+ characters), JWT_ISSUER and JWT_TTL,
// a Go duration such as "90m" or "12h".
func NewJWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret: os.Getenv("JWT_SECRET"),
		Issuer: os.Getenv("JWT_ISSUER"),
		TTL:    DefaultJWTTTL,
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}
	if len(cfg.Secret) < 16 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultJWTIssuer
	}

	if raw := os.Getenv("JWT_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_TTL %q: %w", raw, err)
		}
		cfg.TTL = ttl
	}
	if cfg.TTL < MinJWTTTL || cfg.TTL > MaxJWTTTL {
		return nil, fmt.Errorf("JWT_TTL must be between %v and %v, got %v", MinJWTTTL, MaxJWTTTL, cfg.TTL)
	}
	return cfg, nil
}
