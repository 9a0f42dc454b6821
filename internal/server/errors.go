package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/fetch"
	"github.com/jonathan/intern-autoapply/internal/ledger"
	"github.com/jonathan/intern-autoapply/internal/listing"
	"github.com/jonathan/intern-autoapply/internal/pipeline"
	"github.com/jonathan/intern-autoapply/internal/resume"
	"github.com/jonathan/intern-autoapply/internal/schemas"
)

// ErrInvalidCredentials indicates a wrong operator password
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid operator password"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		invalidCreds *ErrInvalidCredentials
		validation   *ErrValidation
		fieldErrs    validator.ValidationErrors
		unsupported  *resume.UnsupportedFormatError
		apiCall      *resume.APICallError
		parse        *resume.ParseError
		fetchErr     *fetch.Error
		schemaErr    *schemas.ValidationError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &invalidCreds):
		return http.StatusUnauthorized
	case errors.As(err, &validation), errors.As(err, &fieldErrs), errors.As(err, &unsupported),
		errors.Is(err, listing.ErrEmptyKeyword):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrLocked), errors.Is(err, pipeline.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, config.ErrMissingCredentials), errors.Is(err, pipeline.ErrNoPostings):
		return http.StatusPreconditionFailed
	case errors.Is(err, resume.ErrNoJobTitles):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiCall), errors.As(err, &parse), errors.As(err, &schemaErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, pipeline.ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
