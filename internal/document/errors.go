package document

import "fmt"

// InvariantError reports a mutation that would break a document invariant
type InvariantError struct {
	Rule    string
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s: %s", e.Rule, e.Message)
}

// NotFoundError reports a reference to an element that does not exist
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: %s", e.ID)
}

// DecodeError represents a failure to read a serialized document
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("document decode error: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
