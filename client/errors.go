package client

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication is matched by every *AuthenticationError
	ErrAuthentication = errors.New("authentication failed")
	// ErrTransport is matched by every *TransportError
	ErrTransport = errors.New("transport error")
)

// AuthenticationError reports a failed OAuth2 token request
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "failed to authenticate with Bitquery API"
	}
	return "failed to authenticate with Bitquery API: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() []error {
	return joinNonNil(ErrAuthentication, e.Err)
}

// TransportError reports a GraphQL POST that did not produce a usable
// response: a connection failure, a non-retryable HTTP status, or a
// retryable status that persisted through every retry.
type TransportError struct {
	// StatusCode is the last HTTP status seen, or 0 when no response arrived
	StatusCode int
	// Body is the last response body, if any
	Body []byte
	// Attempts is the number of requests made
	Attempts int
	// Exhausted is set when the retry budget ran out
	Exhausted bool
	// Err is the underlying connection or context error
	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("request failed after %d attempt(s): %v", e.Attempts, e.Err)
	case e.Exhausted:
		return fmt.Sprintf("request failed with status code %d after %d attempt(s)", e.StatusCode, e.Attempts)
	default:
		return fmt.Sprintf("request failed with status code %d", e.StatusCode)
	}
}

func (e *TransportError) Unwrap() []error {
	return joinNonNil(ErrTransport, e.Err)
}

func joinNonNil(errs ...error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
