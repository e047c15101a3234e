package render

import "fmt"

// DecodeError represents an image or data URL that could not be decoded
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("decode error: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// EncodeError represents a failure to encode a raster output
type EncodeError struct {
	Format string
	Cause  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s: %v", e.Format, e.Cause)
}

func (e *EncodeError) Unwrap() error {
	return e.Cause
}
