// Package errors defines the application's error kinds and helpers for
// classifying them.
package errors

import (
	"errors"
	"fmt"
)

// Standard error codes for the application.
const (
	CodeUnknown              = "UNKNOWN"
	CodeNotConfigured        = "NOT_CONFIGURED"
	CodeUpstreamCallFailed   = "UPSTREAM_CALL_FAILED"
	CodeConfigurationMissing = "CONFIGURATION_MISSING"
	CodeMailDeliveryFailed   = "MAIL_DELIVERY_FAILED"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its code.
var (
	ErrNotConfigured        = &Error{code: CodeNotConfigured, message: "not configured"}
	ErrUpstreamCallFailed   = &Error{code: CodeUpstreamCallFailed, message: "upstream call failed"}
	ErrConfigurationMissing = &Error{code: CodeConfigurationMissing, message: "configuration missing"}
	ErrMailDeliveryFailed   = &Error{code: CodeMailDeliveryFailed, message: "mail delivery failed"}
)

// ApplicationError is the interface that all our custom errors implement.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error is a coded application error with an optional cause.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

// Message returns the error text without the wrapped cause. NotConfigured
// messages are shown to chat users verbatim.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.code == e.code
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if it doesn't have one.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// UserMessage returns the message of a NotConfigured error in err's chain.
func UserMessage(err error) (string, bool) {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.code == CodeNotConfigured {
		return appErr.message, true
	}

	return "", false
}

// NewNotConfigured reports a missing token, sheet link or group id.
func NewNotConfigured(message string) error {
	return &Error{code: CodeNotConfigured, message: message}
}

// NewUpstreamCallFailed reports a non-success response or transport error
// from the messaging or spreadsheet platform.
func NewUpstreamCallFailed(message string, cause error) error {
	return &Error{code: CodeUpstreamCallFailed, message: message, err: cause}
}

// NewConfigurationMissing reports a required startup setting that is empty.
func NewConfigurationMissing(message string, cause error) error {
	return &Error{code: CodeConfigurationMissing, message: message, err: cause}
}

// NewMailDeliveryFailed wraps any transport error from the mail relay.
func NewMailDeliveryFailed(cause error) error {
	return &Error{code: CodeMailDeliveryFailed, message: "failed to send email", err: cause}
}
