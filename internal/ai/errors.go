package ai

import "fmt"

// InputError is returned when a request is unusable before any model call
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
