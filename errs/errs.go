package errs

import (
	"errors"
	"net/http"
)

// Error kinds. Handlers map these to HTTP statuses; everything that does not
// wrap one of them is treated as internal.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("unauthorized")
	ErrUpload     = errors.New("upload failed")
	ErrInternal   = errors.New("internal error")
)

type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func Validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }
func Conflict(msg string) error   { return &Error{Kind: ErrConflict, Message: msg} }
func NotFound(msg string) error   { return &Error{Kind: ErrNotFound, Message: msg} }
func Auth(msg string) error       { return &Error{Kind: ErrAuth, Message: msg} }
func Upload(msg string) error     { return &Error{Kind: ErrUpload, Message: msg} }
func Internal(msg string) error   { return &Error{Kind: ErrInternal, Message: msg} }

// StatusOf maps an error to its HTTP status. Auth failures are always 401,
// never 404.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
