/**
 * @description
 * This file defines the error taxonomy shared by the service and store layers.
 * Each error kind maps to exactly one HTTP status in the API layer:
 * validation -> 422, not found -> 404, conflict -> 409, business rule -> 422,
 * storage -> 500. Every error carries a reason string that names the violated
 * invariant so callers can reconstruct the failure without reading our logs.
 */
package domain

import (
	"errors"
	"fmt"
)

// Sentinel kinds, matched with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBusinessRule = errors.New("business rule violated")
	ErrStorage      = errors.New("storage unavailable")
)

// DomainError pairs an error kind with a human-readable reason.
type DomainError struct {
	Kind   error
	Reason string
}

func (e *DomainError) Error() string { return e.Reason }

// Unwrap lets errors.Is match the sentinel kind.
func (e *DomainError) Unwrap() error { return e.Kind }

// NewValidationError reports malformed input or an illegal field/state combination.
func NewValidationError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrValidation, Reason: fmt.Sprintf(format, args...)}
}

// NewNotFoundError reports that a referenced entity does not exist.
func NewNotFoundError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrNotFound, Reason: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a uniqueness violation.
func NewConflictError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrConflict, Reason: fmt.Sprintf(format, args...)}
}

// NewBusinessRuleError reports an unmet precondition on a related entity.
func NewBusinessRuleError(format string, args ...interface{}) error {
	return &DomainError{Kind: ErrBusinessRule, Reason: fmt.Sprintf(format, args...)}
}

// NewStorageError wraps a collaborator failure. The cause is kept in the
// reason for logs; the API layer never echoes it to clients.
func NewStorageError(op string, cause error) error {
	return &DomainError{Kind: ErrStorage, Reason: fmt.Sprintf("%s: %v", op, cause)}
}
