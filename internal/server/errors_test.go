package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/intern-autoapply/internal/apply"
	"github.com/jonathan/intern-autoapply/internal/config"
	"github.com/jonathan/intern-autoapply/internal/fetch"
	"github.com/jonathan/intern-autoapply/internal/ledger"
	"github.com/jonathan/intern-autoapply/internal/listing"
	"github.com/jonathan/intern-autoapply/internal/pipeline"
	"github.com/jonathan/intern-autoapply/internal/resume"
	"github.com/jonathan/intern-autoapply/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrInvalidCredentials(t *testing.T) {
	err := &ErrInvalidCredentials{}
	assert.Equal(t, "invalid operator password", err.Error())
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "keyword", Message: "required"}
	assert.Equal(t, "validation error: keyword - required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	req := types.ScrapeRequest{}
	fieldErr := req.Validate()
	require.Error(t, fieldErr)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"request validation", &ErrValidation{Field: "resume", Message: "missing"}, http.StatusBadRequest},
		{"struct validation", fieldErr, http.StatusBadRequest},
		{"unsupported resume", &resume.UnsupportedFormatError{Ext: ".rtf"}, http.StatusBadRequest},
		{"empty keyword", fmt.Errorf("scrape: %w", listing.ErrEmptyKeyword), http.StatusBadRequest},
		{"ledger locked", fmt.Errorf("open: %w", ledger.ErrLocked), http.StatusConflict},
		{"run in progress", pipeline.ErrRunInProgress, http.StatusConflict},
		{"missing listing credentials", &apply.SetupError{Message: "credentials", Cause: config.ErrMissingCredentials}, http.StatusPreconditionFailed},
		{"no postings", pipeline.ErrNoPostings, http.StatusPreconditionFailed},
		{"no job titles", resume.ErrNoJobTitles, http.StatusUnprocessableEntity},
		{"model call", &resume.APICallError{Cause: errors.New("quota")}, http.StatusBadGateway},
		{"listing fetch", &fetch.Error{URL: "https://example.com", Message: "status 503"}, http.StatusBadGateway},
		{"missing API key", pipeline.ErrMissingAPIKey, http.StatusServiceUnavailable},
		{"browser setup", &apply.SetupError{Message: "start browser", Cause: errors.New("no chrome")}, http.StatusInternalServerError},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
