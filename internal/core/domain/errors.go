package domain

import "errors"

// Error kinds produced at the resource-access boundary. Callers match
// with errors.Is and never inspect transport detail.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrNetwork      = errors.New("network failure")
	ErrServer       = errors.New("server error")
)

// Fallback messages when the server supplies no usable error body.
const (
	MsgLoginFailed    = "Failed to login"
	MsgRegisterFailed = "Failed to register"
	MsgRequestFailed  = "Request failed"
)

// RequestError pairs an error kind with the human-readable message to
// surface, typically extracted from the server's structured error body.
type RequestError struct {
	Kind    error
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *RequestError) Unwrap() error { return e.Kind }

// NewRequestError builds a RequestError, falling back to the kind's own
// text when the message is empty.
func NewRequestError(kind error, message string) *RequestError {
	return &RequestError{Kind: kind, Message: message}
}

// ErrorMessage extracts the user-facing message for err, preferring the
// RequestError message and falling back to the supplied default.
func ErrorMessage(err error, fallback string) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
