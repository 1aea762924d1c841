package gateway

import "fmt"

// TransportError wraps network-level failures (dial, timeout, body read).
// These are retryable: the provider may never have seen the request.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is an application-level failure response from the provider:
// a non-2xx status or a well-formed body reporting failure.
type APIError struct {
	Op         string
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: gateway error (http %d, status %q): %s", e.Op, e.StatusCode, e.Status, e.Message)
}
