package ledger

import (
	"errors"
	"fmt"
)

// Error represents a ledger operation failure.
//
// Failure categories:
//   - Validation: a precondition failed before any mutation was issued
//   - Constraint violation: a durable integrity rule rejected a write
//   - Dependent step failure: a non-core step (log insertion) failed inside a
//     batch, rolling back the whole enclosing scope
//
// Error includes structured fields for diagnostics; the Rule names the
// violated precondition or constraint.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Rule names the violated rule (e.g. "insufficient-funds").
	Rule string

	// Message is a human-readable description.
	Message string

	// ScopeToken identifies the transactional scope that rolled back, when
	// the failure occurred inside one.
	ScopeToken string
}

// ErrorCode categorizes ledger errors.
type ErrorCode string

const (
	// ErrCodeValidation indicates a precondition failed before any mutation.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeConstraintViolation indicates a durable integrity rule rejected
	// the write and the enclosing scope rolled back.
	ErrCodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrCodeDependentStepFailure indicates a non-core step inside a batch
	// failed; treated identically to a constraint violation.
	ErrCodeDependentStepFailure ErrorCode = "DEPENDENT_STEP_FAILURE"
)

// Rule names surfaced in Error.Rule.
const (
	RuleAmountPositive     = "amount-positive"
	RuleSourceExists       = "source-exists"
	RuleDestinationExists  = "destination-exists"
	RuleInsufficientFunds  = "insufficient-funds"
	RuleBalanceNonNegative = "balance-non-negative"
	RuleNameUnique         = "name-unique"
	RuleNameRequired       = "name-required"
	RuleRateNonNegative    = "rate-non-negative"
	RuleLogAppend          = "log-append"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ScopeToken != "" {
		return fmt.Sprintf("%s: %s: %s (scope=%s)", e.Code, e.Rule, e.Message, e.ScopeToken)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Rule, e.Message)
}

// IsValidation returns true if the error is a precondition failure.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == ErrCodeValidation
	}
	return false
}

// IsConstraintViolation returns true if the error is a durable constraint
// rejection. Uses errors.As to handle wrapped errors.
func IsConstraintViolation(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == ErrCodeConstraintViolation
	}
	return false
}

// IsDependentStepFailure returns true if a dependent batch step failed.
// Uses errors.As to handle wrapped errors.
func IsDependentStepFailure(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == ErrCodeDependentStepFailure
	}
	return false
}

// newValidationError creates an Error for a failed precondition.
func newValidationError(rule, message string) *Error {
	return &Error{Code: ErrCodeValidation, Rule: rule, Message: message}
}

// newConstraintError creates an Error for a durable constraint rejection.
func newConstraintError(rule, message, scopeToken string) *Error {
	return &Error{Code: ErrCodeConstraintViolation, Rule: rule, Message: message, ScopeToken: scopeToken}
}

// newDependentStepError creates an Error for a failed dependent step.
func newDependentStepError(rule, message, scopeToken string) *Error {
	return &Error{Code: ErrCodeDependentStepFailure, Rule: rule, Message: message, ScopeToken: scopeToken}
}
