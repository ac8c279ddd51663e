package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures in the harvesting pipeline.
type ErrorType string

const (
	ErrorTypeSigning   ErrorType = "signing"
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeImage     ErrorType = "image"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// ErrLoginRequired signals that the session cookie set carries no valid
// login. It drives the login flow and is not treated as a failure.
var ErrLoginRequired = errors.New("login required")

// Error is a classified pipeline error. None of these are retried inside
// the core; retry policy, if any, belongs to the caller.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error

	// RawBody holds the undecodable response payload for transport
	// failures, kept for operator diagnostics.
	RawBody string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Signing wraps an opaque-evaluator failure.
func Signing(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeSigning, Message: msg, Cause: cause}
}

// Transport wraps a network or decode failure, preserving the raw body.
func Transport(msg string, cause error, rawBody string) *Error {
	return &Error{Type: ErrorTypeTransport, Message: msg, Cause: cause, RawBody: rawBody}
}

// Image wraps a captcha image pipeline failure.
func Image(msg string, cause error) *Error {
	return &Error{Type: ErrorTypeImage, Message: msg, Cause: cause}
}

// TypeOf returns the classification of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsSigning reports whether err is a signing failure.
func IsSigning(err error) bool { return TypeOf(err) == ErrorTypeSigning }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return TypeOf(err) == ErrorTypeTransport }

// IsImage reports whether err is an image processing failure.
func IsImage(err error) bool { return TypeOf(err) == ErrorTypeImage }

// IsLoginRequired reports whether err indicates a missing session.
func IsLoginRequired(err error) bool { return errors.Is(err, ErrLoginRequired) }
