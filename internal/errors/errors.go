// Package errors provides custom error types for llmchat.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrModelNotFound   = errors.New("model not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNetwork         = errors.New("network error")
	ErrInvalidResponse = errors.New("invalid response format")
)

// ModelNotFoundError means a provider does not serve the requested model.
// It is the signal that drives fallback to the next provider.
type ModelNotFoundError struct {
	Provider string
	Model    string
}

func (e *ModelNotFoundError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("no model found for %s", e.Model)
	}
	return fmt.Sprintf("model %s is not supported by %s provider", e.Model, e.Provider)
}

// Is allows comparison with sentinel errors
func (e *ModelNotFoundError) Is(target error) bool {
	if target == ErrModelNotFound {
		return true
	}
	_, ok := target.(*ModelNotFoundError)
	return ok
}

// NewModelNotFoundError creates a new ModelNotFoundError
func NewModelNotFoundError(provider, model string) *ModelNotFoundError {
	return &ModelNotFoundError{Provider: provider, Model: model}
}

// ConfigError represents a configuration failure, such as a missing API key.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Message)
}

// Is allows comparison with sentinel errors
func (e *ConfigError) Is(target error) bool {
	if target == ErrInvalidConfig {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}

// NetworkError represents a transport-level failure
type NetworkError struct {
	Operation string
	Endpoint  string
	Err       error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s at %s: %v", e.Operation, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is allows comparison with sentinel errors
func (e *NetworkError) Is(target error) bool {
	if target == ErrNetwork {
		return true
	}
	_, ok := target.(*NetworkError)
	return ok
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(operation, endpoint string, err error) *NetworkError {
	return &NetworkError{Operation: operation, Endpoint: endpoint, Err: err}
}

// APIError represents an application-level failure reported by a provider,
// either through an error object in the body or a non-2xx status.
type APIError struct {
	StatusCode int
	Provider   string
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s API error [%d] at %s: %s", e.Provider, e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("%s API error at %s: %s", e.Provider, e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, provider, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Provider:   provider,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse error: %s", e.Message)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// IsNotFound reports whether err means "this provider does not serve the model".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsConfigError reports whether err is a configuration failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsParseError reports whether err is a malformed-response failure.
func IsParseError(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

// GetHTTPStatus returns the HTTP status carried by an APIError, or 0.
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
