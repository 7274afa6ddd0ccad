package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Reference errors
	ErrColumnNotFound = errors.New("column not found")

	// Precondition errors
	ErrNotNumeric          = errors.New("column is not numeric")
	ErrNoMode              = errors.New("column has no mode")
	ErrUnsupportedConstant = errors.New("unsupported constant type for column")
	ErrEmptyDataset        = errors.New("dataset has no rows")
	ErrInsufficientData    = errors.New("insufficient data for analysis")

	// Selector errors
	ErrInvalidStrategy = errors.New("invalid repair strategy")
	ErrInvalidDetector = errors.New("invalid outlier detector")

	// Construction errors
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrDuplicateRowID  = errors.New("duplicate row identifier")
	ErrShapeMismatch   = errors.New("column length does not match row count")
)

// Error constructors with context
func NewColumnNotFoundError(ref string) error {
	return fmt.Errorf("%w: %s", ErrColumnNotFound, ref)
}

func NewNotNumericError(column string, dtype string) error {
	return fmt.Errorf("%w: %s has type %s", ErrNotNumeric, column, dtype)
}

func NewNoModeError(column string) error {
	return fmt.Errorf("%w: %s", ErrNoMode, column)
}

func NewUnsupportedConstantError(column string, want string, got string) error {
	return fmt.Errorf("%w: %s expects %s constant, got %s", ErrUnsupportedConstant, column, want, got)
}

func NewInsufficientDataError(op string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrInsufficientData, op, reason)
}

func NewInvalidStrategyError(strategy string) error {
	return fmt.Errorf("%w: %q", ErrInvalidStrategy, strategy)
}

func NewInvalidDetectorError(detector string) error {
	return fmt.Errorf("%w: %q", ErrInvalidDetector, detector)
}

// Error checking helpers
func IsColumnNotFound(err error) bool {
	return errors.Is(err, ErrColumnNotFound)
}

// IsPreconditionError reports whether err is a violated repair or detection precondition.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrNotNumeric) ||
		errors.Is(err, ErrNoMode) ||
		errors.Is(err, ErrUnsupportedConstant) ||
		errors.Is(err, ErrEmptyDataset) ||
		errors.Is(err, ErrInsufficientData)
}

func IsSelectorError(err error) bool {
	return errors.Is(err, ErrInvalidStrategy) ||
		errors.Is(err, ErrInvalidDetector)
}

func IsConstructionError(err error) bool {
	return errors.Is(err, ErrDuplicateColumn) ||
		errors.Is(err, ErrDuplicateRowID) ||
		errors.Is(err, ErrShapeMismatch)
}
