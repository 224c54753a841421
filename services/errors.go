package services

import (
	"errors"
	"fmt"
)

// Recoverable error classes reported to callers. Storage outages pass
// through unwrapped as generic failures.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
)

// ValidationError reports an input that violates a stated constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Actor identifies the authenticated user performing an operation, as
// extracted from the identity header by the auth middleware.
type Actor struct {
	ID        uint
	Moderator bool
}
