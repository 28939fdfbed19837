package subscription

import "errors"

var (
	ErrNotFound      = errors.New("subscription not found")
	ErrAlreadyExists = errors.New("subscription already exists")
	// ErrInvalidState indicates a local precondition violation, e.g.
	// resuming a subscription that is not on its grace period.
	ErrInvalidState = errors.New("invalid subscription state")
	// ErrQuantityFloor indicates a quantity change below MinQuantity.
	ErrQuantityFloor = errors.New("subscription quantity cannot go below the floor")
)
