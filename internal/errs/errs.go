// Package errs holds the error taxonomy shared by the workout, set and user operations.
// Callers wrap these sentinels with context and check them with errors.Is.
package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/pkg"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNoFields            = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrNotFound            = errors.New("not found")
	ErrNotFoundOrForbidden = fmt.Errorf("%w or not owned by user", ErrNotFound)
	ErrConflict            = errors.New("conflict")
	ErrInvalidReference    = errors.New("invalid reference")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStore               = errors.New("store failure")

	ErrMalformedRecord = errors.New("malformed performance record")
	ErrEmptyList       = errors.New("no sets available")
	ErrSetNotFound     = errors.New("set not found")
)

// Validationf builds a validation error with a client facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// FromStore translates a store error into the taxonomy. Already classified errors pass through.
func FromStore(err error) error {
	switch {
	case err == nil:
		return nil
	case isClassified(err):
		return err
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case pkg.IsUniqueViolationError(err):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case pkg.IsForeignKeyViolationError(err):
		return fmt.Errorf("%w: %w", ErrInvalidReference, err)
	case pkg.IsNotNullViolationError(err), pkg.IsInvalidTextRepresentationError(err):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
}

func isClassified(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrNotFound, ErrConflict, ErrInvalidReference,
		ErrInvalidCredentials, ErrStore, ErrMalformedRecord, ErrEmptyList, ErrSetNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// HTTPStatus maps an error to the response status code. Unknown errors are internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrEmptyList),
		errors.Is(err, ErrInvalidReference),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrSetNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		// malformed records are stored data we can't read, not client input
		return http.StatusInternalServerError
	}
}

// Message is the short text sent to clients. Store failures never leak details.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoFields):
		return "no fields provided to update"
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrEmptyList):
		return "No sets available"
	case errors.Is(err, ErrSetNotFound):
		return "Set not found"
	case errors.Is(err, ErrNotFoundOrForbidden):
		return "not found or not owned by user"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrInvalidReference):
		return "invalid reference: referenced exercise, workout or user does not exist"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid username or password"
	default:
		return "internal error"
	}
}
