package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound      = errors.New("resource not found")
	ErrTrialNotFound = fmt.Errorf("%w: trial", ErrNotFound)
	ErrRunNotFound   = fmt.Errorf("%w: run", ErrNotFound)

	// Configuration errors - all fatal at load time
	ErrConfigInvalid   = errors.New("invalid scoring configuration")
	ErrUnknownSignal   = errors.New("unknown signal referenced")
	ErrBadExpression   = errors.New("unparsable boolean expression")
	ErrBoundsViolation = errors.New("bounds violate validity constraints")
	ErrDuplicateGate   = errors.New("duplicate gate definition")
	ErrDuplicateRule   = errors.New("duplicate stop rule definition")
)

// Error constructors with context
func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfigInvalid, field, reason)
}

func NewUnknownSignalError(gateID string, signalID string) error {
	return fmt.Errorf("%w: %q in expression for %q", ErrUnknownSignal, signalID, gateID)
}

func NewExpressionError(ownerID string, expression string, err error) error {
	return fmt.Errorf("%w: %q (owner %s): %v", ErrBadExpression, expression, ownerID, err)
}

func NewBoundsError(reason string) error {
	return fmt.Errorf("%w: %s", ErrBoundsViolation, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigInvalid) ||
		errors.Is(err, ErrUnknownSignal) ||
		errors.Is(err, ErrBadExpression) ||
		errors.Is(err, ErrBoundsViolation) ||
		errors.Is(err, ErrDuplicateGate) ||
		errors.Is(err, ErrDuplicateRule)
}
