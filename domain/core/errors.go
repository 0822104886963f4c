package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Construction errors
	ErrInvalidDomain         = errors.New("invalid variable domain")
	ErrMalformedDistribution = errors.New("malformed probability distribution")
	ErrInvalidAssignment     = errors.New("invalid parent assignment")
	ErrInvalidProbability    = errors.New("probability out of range")
	ErrDuplicateVariable     = errors.New("duplicate variable")

	// Validation errors
	ErrMissingAssignment = errors.New("missing parent assignment")
	ErrCyclicDependency  = errors.New("cyclic dependency between variables")

	// State errors
	ErrModelFrozen  = errors.New("model is frozen")
	ErrNotValidated = errors.New("model has not been validated")

	// Sampling and summary errors
	ErrInvalidSampleCount = errors.New("invalid sample count")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrUnknownVariable    = errors.New("unknown variable")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed mismatch")

	// Ledger errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewUnknownVariableError(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownVariable, name)
}

func NewMissingAssignmentError(variable, assignment string) error {
	return fmt.Errorf("%w: %s has no entry for %s", ErrMissingAssignment, variable, assignment)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports errors caused by malformed user input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidDomain) ||
		errors.Is(err, ErrMalformedDistribution) ||
		errors.Is(err, ErrInvalidAssignment) ||
		errors.Is(err, ErrInvalidProbability) ||
		errors.Is(err, ErrInvalidSampleCount) ||
		errors.Is(err, ErrInvalidWorkerCount)
}

// IsValidationError reports structural problems found while validating a model.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingAssignment) ||
		errors.Is(err, ErrCyclicDependency) ||
		errors.Is(err, ErrUnknownVariable)
}

// IsStateError reports operations attempted in the wrong model state.
func IsStateError(err error) bool {
	return errors.Is(err, ErrModelFrozen) ||
		errors.Is(err, ErrNotValidated) ||
		errors.Is(err, ErrDuplicateVariable)
}
