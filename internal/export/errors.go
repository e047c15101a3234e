package export

import "fmt"

// RequestError reports an unusable export request
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid export request: %s: %s", e.Field, e.Message)
}

// OutputError reports a failure while producing one variant in one format
type OutputError struct {
	FormatID  string
	VariantID string
	Stage     string
	Cause     error
}

func (e *OutputError) Error() string {
	target := e.FormatID
	if e.VariantID != "" {
		target += "/" + e.VariantID
	}
	return fmt.Sprintf("export %s failed at %s: %v", target, e.Stage, e.Cause)
}

func (e *OutputError) Unwrap() error {
	return e.Cause
}
