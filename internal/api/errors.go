package api

import (
	"errors"
	"fmt"
)

// AuthError reports bad credentials or an expired session token.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "not authenticated"
	}
	return e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// ValidationError reports input the server (or the client, before sending)
// rejected. Status is zero for client-side rejections.
type ValidationError struct {
	Reason string
	Status int
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "invalid request"
	}
	return e.Reason
}

// TransportError covers network failures, timeouts, server faults and
// undecodable responses.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.Status != 0:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	default:
		return e.Op + ": transport failure"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuth reports whether err is, or wraps, an *AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
