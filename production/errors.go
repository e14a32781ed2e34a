/*
errors.go - Centralized error types for the production engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Store implementations and the API layer wrap or map these errors.

ERROR CATEGORIES:
  1. Validation errors - Draft orders/entries rejected at the boundary
  2. Store errors - Missing or conflicting records

DIVISION GUARD:
  Not an error. Average tonnage with no entries and percent with a zero
  tonnage target are defined as zero instead of propagating NaN/Infinity.

USAGE:
  if errors.Is(err, production.ErrEmptyQuantity) {
      // order had unit count <= 0
  }

  var vErr *production.ValidationError
  if errors.As(err, &vErr) {
      log.Printf("field %s: %s", vErr.Field, vErr.Message)
  }

SEE ALSO:
  - validate.go: Produces ValidationError
  - store.go: Store sentinel errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package production

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyQuantity is returned when an order's unit count is zero or negative.
	ErrEmptyQuantity = errors.New("empty quantity")

	// ErrMissingRequiredField is returned when the operator name or a
	// category-conditional field is absent at finalization time.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrInvalidField is returned for malformed input: unknown category,
	// article outside the category list, inapplicable pallet, bad weight.
	ErrInvalidField = errors.New("invalid field")

	// ErrNoOrders is returned when a shift entry is finalized without orders.
	ErrNoOrders = errors.New("shift entry has no orders")

	// ErrEntryNotFound is returned when a referenced shift entry doesn't exist.
	ErrEntryNotFound = errors.New("shift entry not found")

	// ErrDuplicateEntry is returned when an entry ID is already persisted.
	ErrDuplicateEntry = errors.New("duplicate shift entry")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes why a draft was rejected.
type ValidationError struct {
	Code       string // "empty_quantity", "missing_required_field", ...
	Field      string
	Message    string
	OrderIndex int // position of the offending order; -1 for entry-level fields
	err        error
}

func (e *ValidationError) Error() string {
	if e.OrderIndex >= 0 {
		return fmt.Sprintf("%s: order %d: %s: %s", e.Code, e.OrderIndex, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.err }

func newValidationError(sentinel error, field, message string) *ValidationError {
	return &ValidationError{
		Code:       codeFor(sentinel),
		Field:      field,
		Message:    message,
		OrderIndex: -1,
		err:        sentinel,
	}
}

func codeFor(sentinel error) string {
	switch sentinel {
	case ErrEmptyQuantity:
		return "empty_quantity"
	case ErrMissingRequiredField:
		return "missing_required_field"
	case ErrNoOrders:
		return "no_orders"
	default:
		return "invalid_field"
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyQuantity) ||
		errors.Is(err, ErrMissingRequiredField) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrNoOrders)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound)
}

// IsConflict returns true if the error indicates a write conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}
