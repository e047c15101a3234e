package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrNoKeys is returned when the key pool is empty
var ErrNoKeys = errors.New("no API keys configured")

// ErrorKind classifies remote failures
type ErrorKind string

// Remote error kinds
const (
	// KindTransient failures are retried with backoff
	KindTransient ErrorKind = "transient"
	// KindFatal failures are surfaced without retry
	KindFatal ErrorKind = "fatal"
)

// RemoteError represents a failed call to the model provider
type RemoteError struct {
	Kind       ErrorKind
	StatusCode int
	// Quota is set for rate-limit and quota failures, which rotate to the next key at once
	Quota   bool
	Message string
	Cause   error
}

func (e *RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s remote error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s remote error: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err is a remote failure that must not be retried
func IsFatal(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindFatal
}

// fatalStatus lists HTTP statuses that no retry or key change can fix
var fatalStatus = map[int]bool{
	http.StatusUnauthorized:          true,
	http.StatusPaymentRequired:       true,
	http.StatusForbidden:             true,
	http.StatusRequestEntityTooLarge: true,
	http.StatusUnsupportedMediaType:  true,
}

// httpCoder is implemented by gax API errors
type httpCoder interface {
	HTTPCode() int
}

// Classify maps a provider error to a RemoteError. Context errors are returned as they are.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re
	}

	status := 0
	var gerr *googleapi.Error
	var coder httpCoder
	switch {
	case errors.As(err, &gerr):
		status = gerr.Code
	case errors.As(err, &coder):
		if c := coder.HTTPCode(); c > 0 {
			status = c
		}
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case status == http.StatusTooManyRequests,
		strings.Contains(lower, "resourceexhausted"),
		strings.Contains(lower, "resource_exhausted"),
		strings.Contains(lower, "quota"):
		return &RemoteError{Kind: KindTransient, StatusCode: status, Quota: true, Message: msg, Cause: err}
	case fatalStatus[status],
		strings.Contains(lower, "permissiondenied"),
		strings.Contains(lower, "unauthenticated"),
		strings.Contains(lower, "api key not valid"):
		return &RemoteError{Kind: KindFatal, StatusCode: status, Message: msg, Cause: err}
	default:
		return &RemoteError{Kind: KindTransient, StatusCode: status, Message: msg, Cause: err}
	}
}
