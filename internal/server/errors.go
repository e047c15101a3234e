package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/creative-compliance/internal/ai"
	"github.com/jonathan/creative-compliance/internal/bgremoval"
	"github.com/jonathan/creative-compliance/internal/document"
	"github.com/jonathan/creative-compliance/internal/editor"
	"github.com/jonathan/creative-compliance/internal/export"
	"github.com/jonathan/creative-compliance/internal/llm"
	"github.com/jonathan/creative-compliance/internal/render"
	"github.com/jonathan/creative-compliance/internal/storage"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnavailable indicates a collaborator the request needs is not configured
type ErrUnavailable struct {
	Service string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not configured", e.Service)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		unavail    *ErrUnavailable
		decode     *document.DecodeError
		imgDecode  *render.DecodeError
		aiInput    *ai.InputError
		exportReq  *export.RequestError
		storeErr   *storage.Error
		bgErr      *bgremoval.ServiceError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &decode), errors.As(err, &imgDecode),
		errors.As(err, &aiInput), errors.As(err, &exportReq), errors.Is(err, storage.ErrInvalidService):
		return http.StatusBadRequest
	case editor.IsUserInput(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &unavail), errors.Is(err, llm.ErrNoKeys), errors.As(err, &storeErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &bgErr):
		if bgErr.StatusCode == http.StatusRequestEntityTooLarge || bgErr.StatusCode == http.StatusUnsupportedMediaType {
			return bgErr.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine readable code sent next to the message
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnprocessableEntity:
		return "rejected_edit"
	case http.StatusConflict:
		return "busy"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "unavailable"
	case http.StatusBadGateway:
		return "upstream_error"
	case http.StatusGatewayTimeout:
		return "timeout"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnsupportedMediaType:
		return "unsupported_media"
	default:
		return "internal"
	}
}
