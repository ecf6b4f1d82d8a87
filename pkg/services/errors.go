package services

import (
	"errors"
	"fmt"
)

// RemoteError is a failure reported by the ledger. Message is the upstream
// message and is returned by Error unmodified.
type RemoteError struct {
	// Op is the ledger call that failed (e.g. "SendInvoice").
	Op string

	// Code and Type are the ledger's machine-readable classification, when given.
	Code string
	Type string

	StatusCode int
	RequestID  string
	Message    string

	// Err is the underlying transport or SDK error.
	Err error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// AsRemoteError extracts a RemoteError from err's chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}
	return nil, false
}
