package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinOperatorPasswordLength is the shortest operator password hash-password accepts.
const MinOperatorPasswordLength = 8

// ErrWeakPassword is returned for an operator password below MinOperatorPasswordLength.
var ErrWeakPassword = fmt.Errorf("operator password must be at least %d characters", MinOperatorPasswordLength)

// PasswordConfig holds the operator password hash that guards the apply endpoints.
type PasswordConfig struct {
	BcryptCost   int
	Pepper       string // optional secret appended before hashing
	OperatorHash string // bcrypt hash of the operator password; empty disables token issuance
}

// NewPasswordConfig reads BCRYPT_COST (10-14, default 12), PASSWORD_PEPPER and
// OPERATOR_PASSWORD_HASH. A hash that bcrypt cannot parse is an error.
func NewPasswordConfig() (*PasswordConfig, error) {
	cfg := &PasswordConfig{
		BcryptCost:   12,
		Pepper:       os.Getenv("PASSWORD_PEPPER"),
		OperatorHash: strings.TrimSpace(os.Getenv("OPERATOR_PASSWORD_HASH")),
	}

	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		cost, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
		}
		cfg.BcryptCost = cost
	}
	if cfg.BcryptCost < 10 || cfg.BcryptCost > 14 {
		return nil, fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", cfg.BcryptCost)
	}

	if cfg.OperatorHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.OperatorHash)); err != nil {
			return nil, fmt.Errorf("OPERATOR_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
	}
	return cfg, nil
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(c.peppered(pw)), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// HashOperatorPassword is HashPassword with the operator password length rule.
func (c *PasswordConfig) HashOperatorPassword(pw string) (string, error) {
	if len(pw) < MinOperatorPasswordLength {
		return "", ErrWeakPassword
	}
	return c.HashPassword(pw)
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(c.peppered(pw)))
	return err == nil
}

// VerifyOperator checks a password against OPERATOR_PASSWORD_HASH.
// It always fails when no operator hash is configured.
func (c *PasswordConfig) VerifyOperator(pw string) bool {
	if c.OperatorHash == "" {
		return false
	}
	return c.VerifyPassword(pw, c.OperatorHash)
}

func (c *PasswordConfig) peppered(pw string) string {
	return pw + c.Pepper
}
