package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has no value
var ErrNotFound = errors.New("key not found")

// ErrInvalidService is returned for service names that cannot form a key
var ErrInvalidService = errors.New("invalid service name")

// Error is a failed store operation. The library logs it and degrades instead of failing the caller.
type Error struct {
	Op      string
	Key     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("storage %s %q: %s", e.Op, e.Key, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func opError(op, key string, cause error) error {
	if cause == nil || errors.Is(cause, ErrNotFound) {
		return cause
	}
	return &Error{Op: op, Key: key, Message: "operation failed", Cause: cause}
}
