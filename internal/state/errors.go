package state

import "errors"

var (
	// ErrNotFound is returned when an action targets an id that does not exist.
	ErrNotFound = errors.New("item not found")
	// ErrDuplicate is returned when adding an item whose id already exists.
	ErrDuplicate = errors.New("item already exists")
	// ErrInvalidAction is returned for malformed or unknown actions.
	ErrInvalidAction = errors.New("invalid action")
)
