package client

import (
	"errors"
	"fmt"
)

// RequestError is a non-success response from the analysis backend.
// Message is the server-supplied message and may be empty.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analysis request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("analysis request failed (status %d): %s", e.StatusCode, e.Message)
}

// TransportError means the call itself failed and no structured body exists.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("analysis backend unreachable: %v", e.Cause)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ServerMessage returns the backend-supplied message carried by err, if any.
func ServerMessage(err error) (string, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message, true
	}
	return "", false
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
