package resume

import (
	"errors"
	"fmt"
)

// ErrNoJobTitles is returned when the model's answer contains no usable job title.
var ErrNoJobTitles = errors.New("no valid job titles extracted")

// UnsupportedFormatError is returned for resume files other than .pdf, .docx and .txt.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file type %q: use .pdf, .docx, or .txt", e.Ext)
}

// APICallError represents an error when calling the model
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents an error reading the resume or the model's answer
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
