package editor

import (
	"errors"
	"fmt"

	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/profile"
)

// ErrBusy is returned when a long operation is requested while another is in flight
var ErrBusy = errors.New("another operation is in progress")

// ErrAborted is returned by continuations whose operation was cancelled
var ErrAborted = errors.New("operation was aborted")

// UserInputError represents a request the editor refuses because of its arguments
type UserInputError struct {
	Field   string
	Message string
	Cause   error
}

func (e *UserInputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *UserInputError) Unwrap() error {
	return e.Cause
}

// IsUserInput reports whether err is a rejected edit rather than an internal failure
func IsUserInput(err error) bool {
	var uie *UserInputError
	var inv *document.InvariantError
	var nf *document.NotFoundError
	var lock *profile.LockError
	return errors.As(err, &uie) || errors.As(err, &inv) || errors.As(err, &nf) || errors.As(err, &lock)
}
