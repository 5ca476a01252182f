package middleware

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "resource not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "resource not found" {
		t.Errorf("Message() = %v, want 'resource not found'", err.Message())
	}
	if got, want := err.Error(), "api error 404: resource not found"; got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	if got, want := err.Error(), "api error 500: internal error: underlying error"; got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestAuthenticationError(t *testing.T) {
	err := NewAuthenticationError("invalid token")

	if got, want := err.Error(), "authentication failed: invalid token"; got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
	if !errors.Is(err, ErrAuthentication) {
		t.Error("AuthenticationError should match ErrAuthentication with errors.Is")
	}
}

func TestServerError(t *testing.T) {
	err := NewServerError(503, "service unavailable")

	if err.StatusCode() != 503 {
		t.Errorf("StatusCode() = %v, want 503", err.StatusCode())
	}
	if got, want := err.Error(), "server error 503: service unavailable"; got != want {
		t.Errorf("Error() = %v, want %v", got, want)
	}
	if !errors.Is(err, ErrServer) {
		t.Error("ServerError should match ErrServer with errors.Is")
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	authErr := NewAuthenticationError("token expired")
	wrapped := fmt.Errorf("request failed: %w", authErr)

	if !errors.Is(wrapped, ErrAuthentication) {
		t.Error("wrapped AuthenticationError should still match ErrAuthentication")
	}

	var target *AuthenticationError
	if !errors.As(wrapped, &target) {
		t.Error("should be able to extract AuthenticationError with errors.As")
	}
}
