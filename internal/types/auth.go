package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// TokenRequest is the operator login body for POST /auth/token.
type TokenRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

// TokenResponse carries a bearer token for the apply endpoints.
type TokenResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate validates the TokenRequest using the validator.
func (r *TokenRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
