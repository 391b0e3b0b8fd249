package model

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable machine-readable failure classification surfaced to
// API callers and used by handlers to pick an HTTP status.
type ErrorCode string

const (
	ErrCodeValidation             ErrorCode = "VALIDATION"
	ErrCodeAlreadyExists          ErrorCode = "ALREADY_EXISTS"
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeNoCertificateFound     ErrorCode = "NO_CERTIFICATE_FOUND"
	ErrCodeInvalidCertificateData ErrorCode = "INVALID_CERTIFICATE_DATA"
	ErrCodeRegistryUnavailable    ErrorCode = "REGISTRY_UNAVAILABLE"
	ErrCodeRenderingFailure       ErrorCode = "RENDERING_FAILURE"
	ErrCodeInternal               ErrorCode = "INTERNAL"
)

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code    ErrorCode `json:"error"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// Errorf builds a CodedError with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a code and message to an underlying cause, keeping the
// cause's text in Details so it is surfaced verbatim to the caller.
func WrapError(code ErrorCode, message string, cause error) *CodedError {
	ce := &CodedError{Code: code, Message: message}
	if cause != nil {
		ce.Details = cause.Error()
	}
	return ce
}

// Shared sentinel errors. Registry implementations return these so callers can
// branch with errors.Is regardless of transport.
var (
	ErrAlreadyExists = NewError(ErrCodeAlreadyExists, "certificate number already registered")
	ErrNotFound      = NewError(ErrCodeNotFound, "certificate not found")
)

// AsCoded extracts a CodedError from err's chain, if present.
func AsCoded(err error) (*CodedError, bool) {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
