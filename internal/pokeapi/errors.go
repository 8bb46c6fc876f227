package pokeapi

import (
	"fmt"
)

// Error wraps an underlying error with operation context.
// The wrapped error is an *errors.Error, so callers classify it with
// errors.Is(err, errors.ErrNotFound) and friends.
type Error struct {
	Op       string // Operation: "pokemon", "type", "species", "evolutionChain", "list"
	Resource string // Identifier requested, if applicable
	Err      error
}

func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("pokeapi %s [%s]: %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("pokeapi %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, resource string, err error) error {
	return &Error{
		Op:       op,
		Resource: resource,
		Err:      err,
	}
}
