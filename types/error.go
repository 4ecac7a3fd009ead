package types

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the gateway.
type ErrorCode string

// API error codes
const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrRateLimited         ErrorCode = "RATE_LIMITED"
	ErrNotFound            ErrorCode = "NOT_FOUND"
	ErrTimeout             ErrorCode = "TIMEOUT"
	ErrInternalError       ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable  ErrorCode = "SERVICE_UNAVAILABLE"
	ErrProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
)

// Configuration error codes
const (
	ErrConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrDuplicateProvider ErrorCode = "DUPLICATE_PROVIDER"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// =============================================================================
// ConfigError
// =============================================================================

// ConfigError reports malformed or contradictory configuration. It is raised
// at startup (registry construction, config validation) and never retried.
type ConfigError struct {
	Code    ErrorCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
	}
	return "config error: " + e.Message
}

// NewConfigError creates a ConfigError for the given field.
func NewConfigError(code ErrorCode, field, message string) *ConfigError {
	return &ConfigError{Code: code, Field: field, Message: message}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// =============================================================================
// ProviderError
// =============================================================================

// ProviderErrorKind classifies a single failed provider invocation.
type ProviderErrorKind string

const (
	ProviderErrUnsupported     ProviderErrorKind = "unsupported"
	ProviderErrUnknownProvider ProviderErrorKind = "unknown_provider"
	ProviderErrInvalidRequest  ProviderErrorKind = "invalid_request"
	ProviderErrAuth            ProviderErrorKind = "auth"
	ProviderErrRateLimit       ProviderErrorKind = "rate_limit"
	ProviderErrQuota           ProviderErrorKind = "quota"
	ProviderErrNetwork         ProviderErrorKind = "network"
	ProviderErrTimeout         ProviderErrorKind = "timeout"
	ProviderErrCancelled       ProviderErrorKind = "cancelled"
	ProviderErrUpstream        ProviderErrorKind = "upstream"
	ProviderErrInternal        ProviderErrorKind = "internal"
)

// UpstreamErrorBody mirrors the {"error":{"message":...}} body most provider
// APIs return on failure.
type UpstreamErrorBody struct {
	Error *UpstreamErrorDetail `json:"error,omitempty"`
}

// UpstreamErrorDetail is the inner error object of an upstream body.
type UpstreamErrorDetail struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// UpstreamResponse captures the failed HTTP response of a provider call.
type UpstreamResponse struct {
	StatusCode int                `json:"status_code"`
	Body       *UpstreamErrorBody `json:"body,omitempty"`
}

// ProviderError is the failure of a single candidate invocation. The runner
// recovers from it by falling back to the next candidate.
type ProviderError struct {
	Provider   string            `json:"provider"`
	Capability string            `json:"capability,omitempty"`
	Kind       ProviderErrorKind `json:"kind"`
	// Message is the flat, top-level failure message. It may be empty when
	// the only information is the upstream body.
	Message  string            `json:"message,omitempty"`
	Upstream *UpstreamResponse `json:"response,omitempty"`
	Cause    error             `json:"-"`
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.UpstreamMessage()
	}
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// UpstreamMessage returns response.body.error.message, or "".
func (e *ProviderError) UpstreamMessage() string {
	if e.Upstream == nil || e.Upstream.Body == nil || e.Upstream.Body.Error == nil {
		return ""
	}
	return e.Upstream.Body.Error.Message
}

// Retryable reports whether a later attempt against the same provider could succeed.
func (e *ProviderError) Retryable() bool {
	switch e.Kind {
	case ProviderErrRateLimit, ProviderErrNetwork, ProviderErrTimeout, ProviderErrUpstream:
		return true
	default:
		return false
	}
}

// NewProviderError creates a ProviderError with a flat message.
func NewProviderError(provider string, kind ProviderErrorKind, message string) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Message: message}
}

// KindForStatus maps an upstream HTTP status to a ProviderErrorKind.
func KindForStatus(status int) ProviderErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ProviderErrAuth
	case status == http.StatusTooManyRequests:
		return ProviderErrRateLimit
	case status == http.StatusPaymentRequired:
		return ProviderErrQuota
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ProviderErrTimeout
	case status >= 400 && status < 500:
		return ProviderErrInvalidRequest
	default:
		return ProviderErrUpstream
	}
}

// AsProviderError normalises any invocation failure into a ProviderError.
// Context errors become cancelled/timeout kinds so the runner can tell them
// apart from provider-side failures.
func AsProviderError(provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		// Providers may return shared error values; never write through them.
		cp := *pe
		if cp.Provider == "" {
			cp.Provider = provider
		}
		return &cp
	}
	switch {
	case errors.Is(err, context.Canceled):
		return &ProviderError{Provider: provider, Kind: ProviderErrCancelled, Message: "cancelled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ProviderError{Provider: provider, Kind: ProviderErrTimeout, Message: err.Error(), Cause: err}
	}
	return &ProviderError{Provider: provider, Kind: ProviderErrInternal, Message: err.Error(), Cause: err}
}
