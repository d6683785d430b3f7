// Package services implements the orchestration layer of the chatbot backend:
// the chat pipeline, satisfaction ratings, AI quality analytics, tenant
// management and usage events.
//
// This file centralizes the service-level errors. Services return these (or
// wrap them) for predictable failures; handlers translate them into HTTP
// status codes with errors.Is and errors.As.
package services

import (
	"errors"
	"strings"
)

var (
	// ErrValidation marks bad or missing input. It is usually wrapped in a
	// *ValidationError carrying the individual problems.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates that a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTenantNotFound indicates an unknown tenant id on a management call.
	// Chat traffic never sees it: resolution falls back to the default tenant.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantExists is returned when creating a tenant whose id is taken.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrDefaultTenantProtected is returned when deleting the default tenant.
	// It is a validation error.
	ErrDefaultTenantProtected = errors.New("cannot delete default tenant")

	// ErrUpstream wraps failures of the store or another dependency that
	// prevent the primary operation from completing.
	ErrUpstream = errors.New("upstream failure")

	// ErrNotConfigured reports an optional integration without configuration.
	// Callers degrade to logging.
	ErrNotConfigured = errors.New("not configured")
)

// ValidationError carries a headline message and the individual problems.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Message  string
	Problems []string
}

// NewValidationError returns a *ValidationError.
func NewValidationError(msg string, problems ...string) *ValidationError {
	return &ValidationError{Message: msg, Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrValidation) true.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError names the missing record in its message.
type NotFoundError struct {
	Message string
	Kind    error // ErrNotFound or ErrTenantNotFound
}

func (e *NotFoundError) Error() string { return e.Message }

// Unwrap exposes the sentinel.
func (e *NotFoundError) Unwrap() error { return e.Kind }

func tenantNotFound(id string) error {
	return &NotFoundError{Message: "Tenant " + id + " not found", Kind: ErrTenantNotFound}
}
