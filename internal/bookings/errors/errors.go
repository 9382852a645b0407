package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrDuplicateReference surfaces the unique index violation on
	// booking_reference. The caller mints a fresh reference and retries.
	ErrDuplicateReference = errors.New("booking reference already exists")
)
