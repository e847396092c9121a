package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a missing or invalid setting, typically a
// credential. It is fatal and raised before any network call.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration: %s is required", e.Setting)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Setting, e.Reason)
}

// NewConfigurationError builds a ConfigurationError for a missing setting.
func NewConfigurationError(setting string) *ConfigurationError {
	return &ConfigurationError{Setting: setting}
}

// UpstreamError is a non-success response from an external service.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	b.WriteString(": upstream error")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		b.WriteString(": ")
		b.WriteString(truncate(body, 512))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Transient reports whether the status code suggests the call could succeed later.
func (e *UpstreamError) Transient() bool {
	return IsTransientHTTPStatus(e.StatusCode)
}

// FormatError reports malformed persisted content.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "format: " + e.Reason
	}
	return fmt.Sprintf("format: %s: %s", e.Path, e.Reason)
}

// ParseError reports a generation response that is not valid JSON or does not
// have the expected shape. It never leaves the enrichment layer.
type ParseError struct {
	Purpose string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Purpose, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsFormat reports whether err carries a FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsTransient reports whether err should count against a circuit breaker.
// Cancellation and non-transient 4xx responses never do. Upstream errors
// without a status code are transport failures and count.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode == 0 || ue.Transient()
	}
	return true
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
