package layout

import "fmt"

// AdaptError reports a projection that could not be produced
type AdaptError struct {
	From    string
	To      string
	Message string
	Cause   error
}

func (e *AdaptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("adapt %s -> %s: %s: %v", e.From, e.To, e.Message, e.Cause)
	}
	return fmt.Sprintf("adapt %s -> %s: %s", e.From, e.To, e.Message)
}

func (e *AdaptError) Unwrap() error {
	return e.Cause
}
