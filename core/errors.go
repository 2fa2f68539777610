package core

import "github.com/pkg/errors"

// ErrUpstream is returned when the remote backend cannot be reached or its response cannot be read.
var ErrUpstream = errors.New("server error, please try again later")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// MissingFieldsError reports required fields left empty.
// Fields are listed in form definition order.
type MissingFieldsError struct {
	Message string
	Fields  []string
}

func NewMissingFieldsError(msg string, fields []string) error {
	return &MissingFieldsError{Message: msg, Fields: fields}
}

func (err MissingFieldsError) Error() string {
	return err.Message
}

// RemoteError is a business failure reported by the remote backend.
// Message is surfaced to the user verbatim.
type RemoteError struct {
	Message string
}

func NewRemoteError(msg string) error {
	return &RemoteError{Message: msg}
}

func (err RemoteError) Error() string {
	return err.Message
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
