package types

import "net/http"

// Error represents an HTTP error with status code and message.
type Error struct {
	StatusCode int
	Message    string
}

// Error returns the error message string.
func (e Error) Error() string {
	return e.Message
}

// NewError creates a new Error with the specified status code and message.
func NewError(statusCode int, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewBadRequestError creates a new Error with status 400 Bad Request, used for
// all request validation failures.
func NewBadRequestError(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}
