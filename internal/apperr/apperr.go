// Package apperr holds the error kinds surfaced to API callers and maps
// them onto HTTP responses
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrTooLarge     = errors.New("request too large")
	ErrInternal     = errors.New("internal error")
)

// Error is an error with a kind, a message safe to show the caller and
// optional extra response fields
type Error struct {
	Kind    error
	Message string
	Fields  map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// With attaches an extra field to the response body
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}

	e.Fields[key] = value
	return e
}

func Unauthorized(msg string) *Error { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: ErrForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: ErrNotFound, Message: msg} }
func BadRequest(msg string) *Error   { return &Error{Kind: ErrBadRequest, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: ErrConflict, Message: msg} }
func TooLarge(msg string) *Error     { return &Error{Kind: ErrTooLarge, Message: msg} }

// Internal wraps an adapter failure. The cause is logged, never returned
// to the caller.
func Internal(msg string, err error) *Error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}

// Status returns the HTTP status for err
func Status(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	}

	return http.StatusInternalServerError
}

// Respond aborts the request with the JSON error body for err
func Respond(c *gin.Context, err error) {
	requestID := c.GetString("requestID")
	status := Status(err)

	body := gin.H{"requestID": requestID}

	var e *Error
	if errors.As(err, &e) {
		for k, v := range e.Fields {
			body[k] = v
		}
	}

	if status == http.StatusInternalServerError {
		body["error"] = "Internal server error"
		zap.L().Error("Request failed", zap.Error(err), zap.String("requestID", requestID))
	} else {
		msg := err.Error()
		if e != nil {
			msg = e.Message
		}
		body["error"] = msg
	}

	c.AbortWithStatusJSON(status, body)
}
