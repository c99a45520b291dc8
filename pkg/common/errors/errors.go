// Package errors holds the sentinel errors shared across tripsim and maps them
// to HTTP responses.
//
// It builds on github.com/cockroachdb/errors so callers get stack traces,
// wrapping and user hints:
//
//	return errors.WithHint(
//		errors.Wrapf(errors.ErrInsufficientParseNodes, "%d rules left", n),
//		"the parse has fewer frames than the template")
package errors

import (
	"net/http"

	crdb "github.com/cockroachdb/errors"
)

var (
	New      = crdb.New
	Newf     = crdb.Newf
	Wrap     = crdb.Wrap
	Wrapf    = crdb.Wrapf
	WithHint = crdb.WithHint
	Is       = crdb.Is
	As       = crdb.As

	WithHintf        = crdb.WithHintf
	WithDetailf      = crdb.WithDetailf
	FlattenHints     = crdb.FlattenHints
	GetAllHints      = crdb.GetAllHints
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors
var (
	ErrInvalidInput = New("invalid input")
	ErrNotFound     = New("not found")
	ErrInternal     = New("internal error")
	ErrUnauthorized = New("unauthorized")
)

// Matching errors
var (
	// ErrInsufficientParseNodes is returned when template rules remain but
	// every parse node is already used.
	ErrInsufficientParseNodes = New("insufficient parse nodes")

	// ErrDanglingElement is returned when an element expected in a rule set
	// occurs nowhere in it.
	ErrDanglingElement = New("dangling element")

	// ErrMalformedInput is returned by loaders for structurally invalid
	// logical forms, ontologies and catalogues.
	ErrMalformedInput = New("malformed input")

	// ErrNoCandidates is returned by the grader when no rule set could be
	// matched against the parse.
	ErrNoCandidates = New("no candidate rule set matched")
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if As(err, &appErr) {
		return appErr
	}

	switch {
	case Is(err, ErrMalformedInput), Is(err, ErrInvalidInput):
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	case Is(err, ErrNotFound):
		return NewAppError(http.StatusNotFound, "Resource not found", err)
	case Is(err, ErrUnauthorized):
		return NewAppError(http.StatusUnauthorized, "Unauthorized", err)
	case Is(err, ErrInsufficientParseNodes), Is(err, ErrNoCandidates), Is(err, ErrDanglingElement):
		return NewAppError(http.StatusUnprocessableEntity, "Template cannot be matched", err)
	}

	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
