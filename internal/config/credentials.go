package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the application's secrets in the OS keychain.
const KeyringService = "intern-autoapply"

// ErrMissingCredentials is returned when no listing site login can be resolved.
var ErrMissingCredentials = errors.New("listing site credentials not found (set INTERNSHALA_EMAIL and INTERNSHALA_PASSWORD, or store the password in the keychain)")

// Credentials hold the listing site login used by the authentication gate.
type Credentials struct {
	Email    string
	Password string
}

// String never prints the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Email: %s}", c.Email)
}

// keyringGet is swapped in tests.
var keyringGet = keyring.Get

// LoadCredentials resolves the login from INTERNSHALA_EMAIL / INTERNSHALA_PASSWORD.
// emailOverride wins over the environment for the email. When the password variable is
// unset the OS keyring is consulted under the account's email.
func LoadCredentials(emailOverride string) (Credentials, error) {
	email := strings.TrimSpace(emailOverride)
	if email == "" {
		email = strings.TrimSpace(os.Getenv("INTERNSHALA_EMAIL"))
	}
	if email == "" {
		return Credentials{}, ErrMissingCredentials
	}

	password := os.Getenv("INTERNSHALA_PASSWORD")
	if strings.TrimSpace(password) == "" {
		pw, err := keyringGet(KeyringService, email)
		if err != nil || strings.TrimSpace(pw) == "" {
			return Credentials{}, ErrMissingCredentials
		}
		password = pw
	}

	return Credentials{Email: email, Password: password}, nil
}

// StorePassword saves the listing site password in the OS keychain.
func StorePassword(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("keyring account email is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, email, password)
}
