package composer

import "errors"

const (
	MsgMissingFields = "Please fill out all required fields: Dish Name, Image, and at least one ingredient."
	MsgNoSteps       = "Please add at least one step to the recipe."
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the composer's current state.
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrSessionNotFound = errors.New("composer session not found")
)

// ValidationError carries a message meant to be shown to the user as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
