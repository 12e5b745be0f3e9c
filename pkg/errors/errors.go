// Package errors defines the error taxonomy shared by the indexer, the query
// tools and the search service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingResource marks a required input (file or directory) that is
	// absent. It aborts the whole run.
	ErrMissingResource = errors.New("missing resource")
	// ErrDocumentMissing marks one listed document whose token file is absent.
	// The document is skipped and the run continues.
	ErrDocumentMissing = errors.New("document missing")
	ErrMalformedLine   = errors.New("malformed line")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInternal        = errors.New("internal error")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// MissingResource builds the fatal error for an absent input path.
func MissingResource(kind, path string) *AppError {
	return Newf(ErrMissingResource, http.StatusServiceUnavailable, "%s not found: %s", kind, path)
}

// InvalidInput builds a 400-class error.
func InvalidInput(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, http.StatusBadRequest, format, args...)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedLine):
		return http.StatusBadRequest
	case errors.Is(err, ErrDocumentMissing):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingResource):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode maps an error to a process exit status for the command-line tools.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidInput):
		return 2
	case errors.Is(err, ErrMissingResource):
		return 3
	default:
		return 1
	}
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
