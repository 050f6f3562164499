package workflow

import "errors"

var (
	// ErrValidation marks input that fails field validation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition marks a transition whose status precondition is not met.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrPermissionDenied marks an actor not allowed to perform a transition.
	ErrPermissionDenied = errors.New("permission denied")
)
