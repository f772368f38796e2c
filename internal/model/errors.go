package model

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a login mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDataCorruption indicates a persisted blob failed to parse as the
	// expected shape. Callers recover by treating the store as empty.
	ErrDataCorruption = errors.New("stored data is corrupted")
	// ErrQuizNotFound indicates the requested quiz is not in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound indicates the attempt id is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptCompleted is returned when acting on a finished attempt.
	ErrAttemptCompleted = errors.New("attempt already completed")
	// ErrAttemptInProgress is returned when asking for the result of an
	// attempt that has not been graded yet.
	ErrAttemptInProgress = errors.New("attempt still in progress")
	// ErrNotAnswered is returned by Next while the current question has no
	// recorded answer.
	ErrNotAnswered = errors.New("current question not answered")
	// ErrInvalidOption indicates an option index outside the question's range.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrInvalidIndex indicates a question index outside the attempt's range.
	ErrInvalidIndex = errors.New("question index out of range")
	// ErrUnauthorized is returned when an operation requires a logged-in user.
	ErrUnauthorized = errors.New("not logged in")
)

// ValidationError rejects an operation with missing or malformed fields.
// It lists every offending field so the caller can surface all of them at
// once instead of one per round trip.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// NewValidationError builds a ValidationError, or returns nil when no
// fields were flagged.
func NewValidationError(fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
