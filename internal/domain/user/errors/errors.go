package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInternal           = errors.New("internal error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUpload             = errors.New("upload failed")
)

// Error is a failure of a user flow step. Kind is one of the sentinels above,
// Message is safe to show to the client, Err is the underlying cause if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NewInvalidArgument(msg string) error {
	return New(ErrInvalidArgument, msg)
}

func NewAlreadyExists(msg string) error {
	return New(ErrAlreadyExists, msg)
}

func NewNotFound(msg string) error {
	return New(ErrNotFound, msg)
}

func NewInvalidCredentials(msg string) error {
	return New(ErrInvalidCredentials, msg)
}

func WrapUpload(err error, msg string) error {
	return Wrap(ErrUpload, msg, err)
}

func WrapInternal(err error, context string) error {
	return Wrap(ErrInternal, context, err)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsInternal(err error) bool {
	return errors.Is(err, ErrInternal)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}

func IsUpload(err error) bool {
	return errors.Is(err, ErrUpload)
}

// HTTPStatus maps an error to the response status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case IsInternal(err):
		return http.StatusInternalServerError
	case IsInvalidArgument(err), IsUpload(err):
		return http.StatusBadRequest
	case IsInvalidCredentials(err), IsInvalidToken(err):
		return http.StatusUnauthorized
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	switch {
	case IsInvalidCredentials(err):
		return "invalid user credentials"
	case IsInvalidToken(err):
		return "invalid token"
	case IsNotFound(err):
		return "not found"
	}
	return "internal server error"
}
