/*
errors.go - Centralized error types for catalog operations

PURPOSE:
  All domain errors for the mutating catalog operations in one place.
  The pure circulation package never returns errors - rejections there are
  normal negative results; these sentinels cover the mutation boundary.

USAGE:
  Callers classify with errors.Is():

    if errors.Is(err, catalog.ErrAlreadyBorrowed) { ... }

  or with the helpers below when mapping to HTTP status codes.
*/
package catalog

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBookNotFound is returned when a referenced book doesn't exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrStudentNotFound is returned when a referenced student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrNoHealthyCopies is returned when a borrow targets a book with no
	// sound copies left. Damaged and lost copies cannot be lent.
	ErrNoHealthyCopies = errors.New("no healthy copies available")

	// ErrAlreadyBorrowed is returned when the same student already holds an
	// active loan on the same title.
	ErrAlreadyBorrowed = errors.New("student already borrowed this book")

	// ErrNothingToReturn is returned when a return targets a book with no
	// active loans.
	ErrNothingToReturn = errors.New("book is not on loan")

	// ErrLoanNotFound is returned when the named borrower has no active loan
	// on the book.
	ErrLoanNotFound = errors.New("no loan for this borrower")

	// ErrAmbiguousReturn is returned when a return names no borrower and the
	// book has more than one active loan.
	ErrAmbiguousReturn = errors.New("multiple loans, borrower required")

	// ErrBlankField is returned when a required free-text field is blank.
	ErrBlankField = errors.New("required field is blank")

	// ErrInvalidDays is returned when a borrow requests a non-positive
	// loan duration.
	ErrInvalidDays = errors.New("loan days must be positive")

	// ErrInvalidQuantity is returned when a book is registered with a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInvalidSettings is returned when settings values are below 1.
	ErrInvalidSettings = errors.New("settings values must be at least 1")
)

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrLoanNotFound)
}

// IsConflict returns true if the error indicates a state conflict the
// caller should surface as-is rather than retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyBorrowed) ||
		errors.Is(err, ErrNothingToReturn) ||
		errors.Is(err, ErrAmbiguousReturn) ||
		errors.Is(err, ErrNoHealthyCopies)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBlankField) ||
		errors.Is(err, ErrInvalidDays) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidSettings)
}
