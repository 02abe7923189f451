package service

import (
	"errors"
	"fmt"

	"mondesavoir/models"
)

// ErrDuplicateUsername is returned by repositories when the username unique constraint fails
var ErrDuplicateUsername = errors.New("username already exists")

// ValidationError reports missing or malformed input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError from a format string
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a lookup of an unknown entity
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// AuthError reports a caller that does not resolve to a known user
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// overflowError reports a score change that would leave the int64 range
func overflowError(err error) error {
	if errors.Is(err, models.ErrScoreOverflow) {
		return NewValidationError("delta would overflow the score")
	}
	return err
}
