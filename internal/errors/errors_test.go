package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestModelNotFoundError(t *testing.T) {
	err := NewModelNotFoundError("OpenAI", "claude-3-haiku")

	expected := "model claude-3-haiku is not supported by OpenAI provider"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrModelNotFound) {
		t.Error("Expected error to match ErrModelNotFound")
	}

	wrapped := fmt.Errorf("connect: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("Expected wrapped error to be reported as not found")
	}

	if IsConfigError(err) {
		t.Error("Expected not-found error not to be a config error")
	}
}

func TestModelNotFoundError_NoProvider(t *testing.T) {
	err := NewModelNotFoundError("", "mystery")

	expected := "no model found for mystery"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("OpenAI API key is required")

	expected := "invalid configuration: OpenAI API key is required"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !IsConfigError(fmt.Errorf("wrap: %w", err)) {
		t.Error("Expected wrapped error to be a config error")
	}

	if IsNotFound(err) {
		t.Error("Expected config error not to be not found")
	}

	stdErr := errors.New("standard error")
	if err.Is(stdErr) {
		t.Error("Expected error not to match standard error")
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("POST", "https://api.openai.com/v1/chat/completions", cause)

	expected := "network error during POST at https://api.openai.com/v1/chat/completions: connection refused"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, cause) {
		t.Error("Expected Unwrap to expose the cause")
	}

	if !IsNetworkError(err) {
		t.Error("Expected IsNetworkError to be true")
	}

	noEndpoint := NewNetworkError("GET", "", cause)
	if noEndpoint.Error() != "network error during GET: connection refused" {
		t.Errorf("unexpected message: %s", noEndpoint.Error())
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(401, "OpenAI", "/v1/models", "invalid key")

	expected := "OpenAI API error [401] at /v1/models: invalid key"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if got := GetHTTPStatus(fmt.Errorf("wrap: %w", err)); got != 401 {
		t.Errorf("GetHTTPStatus() = %d, want 401", got)
	}

	noStatus := NewAPIError(0, "Anthropic", "/v1/messages", "overloaded")
	if noStatus.Error() != "Anthropic API error at /v1/messages: overloaded" {
		t.Errorf("unexpected message: %s", noStatus.Error())
	}

	if GetHTTPStatus(errors.New("plain")) != 0 {
		t.Error("Expected 0 status for non-API errors")
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("Key content not found", "$.choices[0].message")

	expected := "parse error at $.choices[0].message: Key content not found"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("Expected error to match ErrInvalidResponse")
	}

	if !IsParseError(err) {
		t.Error("Expected IsParseError to be true")
	}

	bare := NewParseError("unexpected end of JSON input", "")
	if bare.Error() != "parse error: unexpected end of JSON input" {
		t.Errorf("unexpected message: %s", bare.Error())
	}
}
