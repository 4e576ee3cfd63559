package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAuthError(t *testing.T) {
	err := NewAuthError("test auth error")

	if err == nil {
		t.Fatal("Expected non-nil error")
	}

	expected := "authentication failed: test auth error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	target := NewAuthError("target")
	if !err.Is(target) {
		t.Error("Expected error to be auth error type")
	}

	other := NewAPIError(400, "test", "other error")
	if err.Is(other) {
		t.Error("Expected error not to match different type")
	}

	stdErr := errors.New("standard error")
	if err.Is(stdErr) {
		t.Error("Expected error not to match standard error")
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("AZURE_OAI_KEY", "not set")

	expected := "configuration error: AZURE_OAI_KEY: not set"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noField := NewConfigurationError("", "broken")
	if noField.Error() != "configuration error: broken" {
		t.Errorf("Error() = %s", noField.Error())
	}

	wrapped := fmt.Errorf("startup: %w", err)
	if !IsConfigurationError(wrapped) {
		t.Error("IsConfigurationError should see through wrapping")
	}
	if IsServiceError(wrapped) {
		t.Error("configuration error must not be classified as a service error")
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(400, "test-endpoint", "test API error")

	expected := "API error [400] at test-endpoint: test API error"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	noStatus := NewAPIError(0, "threads", "boom")
	if noStatus.Error() != "API error at threads: boom" {
		t.Errorf("Error() = %s", noStatus.Error())
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("run run_1 still in_progress")

	expected := "request timed out: run run_1 still in_progress"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}

	if NewTimeoutError("").Error() != "request timed out" {
		t.Error("empty TimeoutError message mismatch")
	}

	if !IsTimeoutError(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsTimeoutError should see through wrapping")
	}
}

func TestUsageLimitError(t *testing.T) {
	err := NewUsageLimitError("slow down")

	if err.Error() != "usage limit exceeded: slow down" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !IsRateLimitError(err) {
		t.Error("IsRateLimitError() = false")
	}
	if GetHTTPStatus(err) != 429 {
		t.Errorf("GetHTTPStatus() = %d, want 429", GetHTTPStatus(err))
	}
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkErrorWithEndpoint("create thread", "threads", cause)

	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}
	if !IsNetworkError(err) {
		t.Error("IsNetworkError() = false")
	}
	if !IsServiceError(err) {
		t.Error("network errors are service errors")
	}
	if GetEndpoint(err) != "threads" {
		t.Errorf("GetEndpoint() = %q", GetEndpoint(err))
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError("no text content", "content.0.text.value")

	if err.Error() != "parse error: no text content" {
		t.Errorf("Error() = %s", err.Error())
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("ParseError should match ErrInvalidResponse")
	}
}

func TestRunNotCompletedError(t *testing.T) {
	err := NewRunNotCompletedError("run_1", "failed", "server_error")

	if err.Error() != "run run_1 ended with status failed: server_error" {
		t.Errorf("Error() = %s", err.Error())
	}
	if NewRunNotCompletedError("run_2", "expired", "").Error() != "run run_2 ended with status expired" {
		t.Error("message without last error mismatch")
	}
	if !errors.Is(err, ErrRunNotCompleted) {
		t.Error("RunNotCompletedError should match ErrRunNotCompleted")
	}
}

func TestErrorHelpers(t *testing.T) {
	apiErr := NewAPIErrorWithBody(500, "threads/t/runs", "server error", `{"error":{"code":"server_error"}}`)
	apiErr.Code = "server_error"
	wrapped := fmt.Errorf("start run: %w", apiErr)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"status", GetHTTPStatus(wrapped), 500},
		{"endpoint", GetEndpoint(wrapped), "threads/t/runs"},
		{"code", GetErrorCode(wrapped), "server_error"},
		{"body", GetResponseBody(wrapped), `{"error":{"code":"server_error"}}`},
		{"service", IsServiceError(wrapped), true},
		{"auth", IsAuthError(wrapped), false},
		{"plain status", GetHTTPStatus(errors.New("x")), 0},
		{"plain endpoint", GetEndpoint(errors.New("x")), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	authErr := &AuthError{Message: "bad key", StatusCode: 401, Endpoint: "assistants"}
	if GetHTTPStatus(authErr) != 401 || GetEndpoint(authErr) != "assistants" {
		t.Error("AuthError status/endpoint not extracted")
	}
}
