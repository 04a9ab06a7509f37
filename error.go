package siteqa

import (
	"errors"
	"fmt"
	"time"
)

// Application error codes.
//
// The codes are deliberately coarse. Callers branch on the code, humans read
// the message.
const (
	ECONFIG      = "config"
	ECONFLICT    = "conflict"
	ECORRUPT     = "corrupt"
	EINTERNAL    = "internal"
	EINVALID     = "invalid"
	EMALFORMED   = "malformed"
	ENOTFOUND    = "not_found"
	ERATELIMITED = "rate_limited"
	EUNAVAILABLE = "unavailable"
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract out the code & message.
//
// Any non-application error (such as a disk error) should be reported as an
// EINTERNAL error and the human user should only see "Internal error" as the
// message. These low-level internal error details should only be logged and
// reported to the operator of the application (not the end user).
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable error message.
	Message string

	// RetryAfter is the delay suggested by an upstream service before the
	// next attempt. Zero when unknown.
	RetryAfter time.Duration
}

// Error implements the error interface. Not used by the application otherwise.
func (e *Error) Error() string {
	return fmt.Sprintf("siteqa error: code=%s message=%s", e.Code, e.Message)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// ErrorRetryAfter returns the suggested retry delay of an application error.
func ErrorRetryAfter(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// IsRetryable reports whether err is a transient upstream failure that may
// succeed on a later attempt.
func IsRetryable(err error) bool {
	switch ErrorCode(err) {
	case EUNAVAILABLE, ERATELIMITED:
		return true
	}
	return false
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// RateLimitedf returns an ERATELIMITED error carrying a suggested retry delay.
func RateLimitedf(retryAfter time.Duration, format string, args ...any) *Error {
	e := Errorf(ERATELIMITED, format, args...)
	e.RetryAfter = retryAfter
	return e
}
