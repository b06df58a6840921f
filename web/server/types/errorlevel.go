package types

import (
	"fmt"
	"net/http"
)

// ErrorLevel is the amount of error detail returned to clients.
type ErrorLevel string

const (
	// ErrorLevelNone replaces all error messages with the status text.
	ErrorLevelNone ErrorLevel = "none"
	// ErrorLevelMinimal keeps client error (4xx) messages, and replaces server
	// error (5xx) messages with the status text.
	ErrorLevelMinimal ErrorLevel = "minimal"
	// ErrorLevelFull returns error messages unchanged.
	ErrorLevelFull ErrorLevel = "full"
)

// ErrorLevelFromString returns the ErrorLevel with the given name.
func ErrorLevelFromString(s string) (ErrorLevel, error) {
	switch lvl := ErrorLevel(s); lvl {
	case ErrorLevelNone, ErrorLevelMinimal, ErrorLevelFull:
		return lvl, nil
	default:
		return "", fmt.Errorf("invalid error level '%s'", s)
	}
}

// Sanitize returns a copy of err with its message reduced according to lvl.
func (lvl ErrorLevel) Sanitize(err *Error) *Error {
	if err == nil {
		return nil
	}

	sanitized := *err
	switch lvl {
	case ErrorLevelFull:
	case ErrorLevelMinimal:
		if err.StatusCode >= http.StatusInternalServerError {
			sanitized.Message = http.StatusText(err.StatusCode)
		}
	default:
		sanitized.Message = http.StatusText(err.StatusCode)
	}

	return &sanitized
}
