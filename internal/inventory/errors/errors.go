package errors

import "errors"

var (
	// ErrSlotNotFound means no slot exists for that experience and calendar
	// day. Permanent; not retried.
	ErrSlotNotFound = errors.New("no slot for the selected date")

	// ErrInsufficientCapacity means available < requested at the moment the
	// atomic reserve ran. Retrying with the same quantity without re-reading
	// state will fail again.
	ErrInsufficientCapacity = errors.New("not enough slots available")

	// ErrInvalidQuantity rejects non-positive reserve/release amounts.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
