// Package upstream defines the error taxonomy for calls to the external
// transcription and completion services, and classifies SDK errors into it.
//
// Three conditions matter to callers and must stay distinguishable:
// a missing credential (fatal, no retry), a transport failure (service
// unreachable, retryable), and a reachable service that rejected the request
// (retry depends on the status).
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	openai "github.com/sashabaranov/go-openai"
)

// ConfigError means the client is not usable as configured, typically a
// missing API key. Checked before any network call.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	if e == nil || e.Reason == "" {
		return "upstream configuration error"
	}
	return e.Reason
}

// ConnectivityError means the upstream could not be reached at all: DNS
// failure, refused connection, or timeout. Retryable from the caller's
// point of view.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	if e == nil || e.Err == nil {
		return "upstream unreachable"
	}
	return fmt.Sprintf("upstream unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UpstreamError means the service answered with a non-success status.
// Transient is set for server-side (5xx) failures worth retrying later;
// everything else indicates the input or request was rejected.
type UpstreamError struct {
	StatusCode int
	Body       string
	Transient  bool
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "upstream error"
	}
	if e.Transient {
		return fmt.Sprintf("upstream server error (status %d): %s (temporary, retry later)", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("upstream rejected request (status %d): %s", e.StatusCode, e.Body)
}

// NewConfigError builds a ConfigError with the given reason.
func NewConfigError(reason string) error {
	return &ConfigError{Reason: reason}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsConnectivity reports whether err is (or wraps) a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// Classify maps an error returned by the go-openai client onto the taxonomy.
// API-level errors keep their status and body; transport-level errors become
// ConnectivityError. Errors already in the taxonomy pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var cfgErr *ConfigError
	var connErr *ConnectivityError
	var upErr *UpstreamError
	if errors.As(err, &cfgErr) || errors.As(err, &connErr) || errors.As(err, &upErr) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
			Transient:  apiErr.HTTPStatusCode >= 500,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		// RequestError with a status means the service answered with a
		// non-JSON error body.
		if reqErr.HTTPStatusCode > 0 {
			body := ""
			if reqErr.Err != nil {
				body = reqErr.Err.Error()
			}
			return &UpstreamError{
				StatusCode: reqErr.HTTPStatusCode,
				Body:       body,
				Transient:  reqErr.HTTPStatusCode >= 500,
			}
		}
		return &ConnectivityError{Err: reqErr}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ConnectivityError{Err: err}
	}

	return &ConnectivityError{Err: err}
}
