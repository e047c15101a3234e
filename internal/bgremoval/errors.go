package bgremoval

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies service failures
type ErrorKind string

// Service error kinds
const (
	KindTransient ErrorKind = "transient"
	KindFatal     ErrorKind = "fatal"
)

// ServiceError represents a failed background removal request.
type ServiceError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("background removal %s error: %s", e.Kind, e.Message)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("background removal %s error (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether retrying can never succeed
func (e *ServiceError) Fatal() bool {
	return e.Kind == KindFatal
}

var statusMessages = map[int]string{
	http.StatusUnauthorized:          "invalid API key",
	http.StatusPaymentRequired:       "account has no credits left",
	http.StatusForbidden:             "access denied",
	http.StatusRequestEntityTooLarge: "image too large",
	http.StatusUnsupportedMediaType:  "unsupported image type",
	http.StatusTooManyRequests:       "rate limited",
}

func statusError(code int, body []byte) *ServiceError {
	msg, known := statusMessages[code]
	if !known {
		msg = fmt.Sprintf("HTTP status %d", code)
	}
	if detail := strings.TrimSpace(string(body)); detail != "" && len(detail) < 200 {
		msg += ": " + detail
	}
	kind := KindTransient
	if known && code != http.StatusTooManyRequests {
		kind = KindFatal
	}
	return &ServiceError{Kind: kind, StatusCode: code, Message: msg}
}
