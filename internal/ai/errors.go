package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthError is a 401/403 from the provider.
type AuthError struct{ *APIError }

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.APIError.Error())
}

func (e *AuthError) Unwrap() error { return e.APIError }

// RateLimitError is a 429. RetryAfter is zero when the provider gave no hint.
type RateLimitError struct {
	*APIError
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: wait about %ds before retrying: %s", int(e.RetryAfter.Seconds()), e.APIError.Error())
	}
	return fmt.Sprintf("rate limited: %s", e.APIError.Error())
}

func (e *RateLimitError) Unwrap() error { return e.APIError }

// ModelNotFoundError means the model name is unknown to the provider, or not
// pulled on a local runtime.
type ModelNotFoundError struct{ *APIError }

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found: %s", e.APIError.Error())
}

func (e *ModelNotFoundError) Unwrap() error { return e.APIError }

// ToolsUnsupportedError means the model or route rejected a request carrying
// tool definitions.
type ToolsUnsupportedError struct{ *APIError }

func (e *ToolsUnsupportedError) Error() string {
	return fmt.Sprintf("model does not accept tool calls: %s", e.APIError.Error())
}

func (e *ToolsUnsupportedError) Unwrap() error { return e.APIError }

// BadRequestError is any other 4xx validation failure.
type BadRequestError struct{ *APIError }

func (e *BadRequestError) Error() string { return fmt.Sprintf("bad request: %s", e.APIError.Error()) }

func (e *BadRequestError) Unwrap() error { return e.APIError }

// QuotaExceededError signals billing or credit exhaustion; retrying won't help.
type QuotaExceededError struct{ *APIError }

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s", e.APIError.Error())
}

func (e *QuotaExceededError) Unwrap() error { return e.APIError }

// ServerError is a 5xx from the provider.
type ServerError struct{ *APIError }

func (e *ServerError) Error() string { return fmt.Sprintf("provider error: %s", e.APIError.Error()) }

func (e *ServerError) Unwrap() error { return e.APIError }

// UnreachableError means no HTTP response was received (e.g. Ollama not running).
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Retryable reports whether err is worth another attempt by the caller.
func Retryable(err error) bool {
	var (
		rl *RateLimitError
		se *ServerError
		ur *UnreachableError
	)
	return errors.As(err, &rl) || errors.As(err, &se) || errors.As(err, &ur)
}

// mentionsTools detects provider messages rejecting tool definitions, e.g.
// Ollama's "does not support tools" or OpenRouter's "No endpoints found that
// support tool use".
func mentionsTools(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "support tools") || strings.Contains(m, "support tool use") ||
		strings.Contains(m, "tool calling is not supported") || strings.Contains(m, "tools are not supported")
}
