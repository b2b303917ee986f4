// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientFunds   = errors.New("insufficient coins")
	ErrAlreadyClaimed      = errors.New("mission already claimed today")
	ErrMissionNotCompleted = errors.New("mission not yet completed")
	ErrUnknownMission      = errors.New("invalid mission type")
	ErrUpstream            = errors.New("external service failure")
)

// HTTPError is what handlers write back: a status and a message field.
type HTTPError struct {
	Status  int
	Message string
	err     error
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return e.err }

func newHTTPError(status int, msg string, cause error) *HTTPError {
	return &HTTPError{Status: status, Message: msg, err: cause}
}

// Map converts repo/infra/service errors into an HTTPError.
// Keeps handlers clean by centralizing the status choice.
func Map(err error) *HTTPError {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return newHTTPError(http.StatusNotFound, "record not found", err)

	case errors.Is(err, ErrNotFound):
		return newHTTPError(http.StatusNotFound, err.Error(), err)

	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrAlreadyClaimed),
		errors.Is(err, ErrMissionNotCompleted),
		errors.Is(err, ErrUnknownMission):
		return newHTTPError(http.StatusBadRequest, err.Error(), err)

	case errors.Is(err, ErrUnauthorized):
		return newHTTPError(http.StatusUnauthorized, err.Error(), err)

	case errors.Is(err, ErrForbidden):
		return newHTTPError(http.StatusForbidden, err.Error(), err)

	case errors.Is(err, ErrUpstream):
		return newHTTPError(http.StatusBadGateway, err.Error(), err)

	case errors.Is(err, context.DeadlineExceeded):
		return newHTTPError(http.StatusGatewayTimeout, "request timed out", err)

	case errors.Is(err, context.Canceled):
		return newHTTPError(499, "request was canceled", err)

	default:
		return newHTTPError(http.StatusInternalServerError, err.Error(), err)
	}
}

// InvalidArgument creates a 400 error with the given message.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return newHTTPError(http.StatusBadRequest, msg, ErrValidation)
}

// NotFound creates a 404 error with the given message.
func NotFound(msg string) error {
	return newHTTPError(http.StatusNotFound, msg, ErrNotFound)
}

// Forbidden creates a 403 error with the given message.
func Forbidden(msg string) error {
	return newHTTPError(http.StatusForbidden, msg, ErrForbidden)
}
