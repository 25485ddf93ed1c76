package domain

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of pipeline error
type ErrorCode string

const (
	// Fatal document errors: abort the whole run, surfaced as 4xx.
	ErrInvalidDocument ErrorCode = "InvalidDocument"
	ErrEmptyDocument   ErrorCode = "EmptyDocument"

	// Per-page model errors: recorded as failure notes, the run continues.
	ErrModelUnavailable ErrorCode = "ModelUnavailable"
	ErrModelAuthError   ErrorCode = "ModelAuthError"
	ErrModelTimeout     ErrorCode = "ModelTimeout"

	// Per-page normalization error.
	ErrMalformedModelResponse ErrorCode = "MalformedModelResponse"

	// Export serialization failure, fatal to the export step only.
	ErrExportError ErrorCode = "ExportError"

	// Config/usage errors outside the pipeline taxonomy.
	ErrUnknownProvider ErrorCode = "UnknownProvider"
)

// PipelineError is a domain error carrying a taxonomy code
type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a new pipeline error
func NewError(code ErrorCode, message string, err error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidDocumentError(message string, err error) *PipelineError {
	return NewError(ErrInvalidDocument, message, err)
}

func EmptyDocumentError(message string) *PipelineError {
	return NewError(ErrEmptyDocument, message, nil)
}

func ModelUnavailableError(message string, err error) *PipelineError {
	return NewError(ErrModelUnavailable, message, err)
}

func ModelAuthError(message string, err error) *PipelineError {
	return NewError(ErrModelAuthError, message, err)
}

func ModelTimeoutError(message string, err error) *PipelineError {
	return NewError(ErrModelTimeout, message, err)
}

func MalformedResponseError(message string, err error) *PipelineError {
	return NewError(ErrMalformedModelResponse, message, err)
}

func ExportError(message string, err error) *PipelineError {
	return NewError(ErrExportError, message, err)
}

func UnknownProviderError(provider string) *PipelineError {
	return NewError(ErrUnknownProvider, fmt.Sprintf("unknown model provider %q", provider), nil)
}

// CodeOf extracts the taxonomy code from err, or "" if err is not a PipelineError.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsFatal reports whether err must abort the whole run rather than a single page.
func IsFatal(err error) bool {
	switch CodeOf(err) {
	case ErrInvalidDocument, ErrEmptyDocument:
		return true
	}
	return false
}
