// Package apperrors defines the error taxonomy shared by every controller.
// Handlers map these sentinels onto HTTP statuses with errors.Is; the
// controllers never return a bare infrastructure error as one of these.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates malformed input the caller can correct.
	ErrValidation = errors.New("validation error")

	// ErrConflict indicates the requested write already happened or would
	// violate an append-once / one-per-key invariant.
	ErrConflict = errors.New("conflict")

	// ErrAuthorization covers invalid, revoked, and wrongly-scoped tokens.
	// It is deliberately uniform so callers cannot probe which case applied.
	ErrAuthorization = errors.New("not authorized")

	// ErrNotFound indicates a referenced room, guest, worker, or task is absent.
	ErrNotFound = errors.New("not found")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Authorization returns the bare sentinel. Details belong in logs, not in
// the error the caller sees.
func Authorization() error {
	return ErrAuthorization
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
