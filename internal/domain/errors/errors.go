// Package errors defines domain-specific error types.
// Using typed errors (instead of strings) allows clients to handle specific cases.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for domain validation
var (
	// Entity errors
	ErrEntityNotFound      = errors.New("entity not found")
	ErrEntityAlreadyExists = errors.New("entity already exists")

	// Membership errors
	ErrMembershipNotActive = errors.New("membership is not active")
	ErrNoSessionsLeft      = errors.New("no training sessions left on membership")
	ErrNoSessionsUsed      = errors.New("no used sessions to refund")
	ErrMembershipNotPaused = errors.New("membership is not paused")

	// Appointment errors
	ErrBookingConflict     = errors.New("trainer already booked for this window")
	ErrSlotUnavailable     = errors.New("trainer is not available for this window")
	ErrNotCancellable      = errors.New("appointment can no longer be cancelled")
	ErrAppointmentFinal    = errors.New("appointment is in a terminal state")
	ErrForbidden           = errors.New("caller does not own this resource")

	// Payment errors
	ErrPackageNotActive         = errors.New("package is not active")
	ErrInvalidSignature         = errors.New("gateway signature verification failed")
	ErrGatewayResult            = errors.New("gateway reported a failed transaction")
	ErrPaymentAlreadyCompleted  = errors.New("payment already completed")
	ErrMalformedGatewayPayload  = errors.New("gateway payload could not be decoded")
)

// DomainError wraps errors with a machine-readable code and context.
//
// Pattern: Error Wrapping with Context
type DomainError struct {
	Code    string // Machine-readable error code (e.g., "QUOTA_EXHAUSTED")
	Message string // Human-readable message
	Err     error  // Underlying error (for error chains)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation failure with field-level detail.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(e))
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// BusinessRuleViolation represents a violation of a business rule.
// Unlike validation errors (data format), these are about business logic:
// "cannot cancel less than 24h before the session" is a rule, not validation.
type BusinessRuleViolation struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

// Error implements the error interface.
func (e BusinessRuleViolation) Error() string {
	return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
}

// NewBusinessRuleViolation creates a new business rule violation error.
func NewBusinessRuleViolation(rule, message string, context map[string]interface{}) *BusinessRuleViolation {
	return &BusinessRuleViolation{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// ConcurrencyError represents errors from concurrent access: a conditional
// update matched zero rows because another writer got there first.
type ConcurrencyError struct {
	EntityType string
	EntityID   string
	Message    string
}

// Error implements the error interface.
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrency error on %s [%s]: %s", e.EntityType, e.EntityID, e.Message)
}

// NewConcurrencyError creates a new concurrency error.
func NewConcurrencyError(entityType, entityID, message string) *ConcurrencyError {
	return &ConcurrencyError{
		EntityType: entityType,
		EntityID:   entityID,
		Message:    message,
	}
}

// Helper functions for common error checking

// Is re-exports errors.Is so callers do not need two errors imports.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As re-exports errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is an "entity not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// IsForbidden checks if an error is an ownership/role error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsConflict checks whether an error is one of the booking conflict family:
// quota exhausted, calendar slot taken, or trainer unavailable.
func IsConflict(err error) bool {
	return errors.Is(err, ErrBookingConflict) ||
		errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrNoSessionsLeft)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var valErr ValidationError
	var valErrs ValidationErrors
	return errors.As(err, &valErr) || errors.As(err, &valErrs)
}

// IsBusinessRuleViolation checks if an error is a business rule violation.
func IsBusinessRuleViolation(err error) bool {
	var brv *BusinessRuleViolation
	return errors.As(err, &brv)
}

// IsConcurrencyError checks if an error is a concurrency error.
func IsConcurrencyError(err error) bool {
	var ce *ConcurrencyError
	return errors.As(err, &ce)
}
