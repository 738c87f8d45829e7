package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fyrsmithlabs/lifearchitect/internal/flows"
	"github.com/fyrsmithlabs/lifearchitect/internal/goals"
	"github.com/fyrsmithlabs/lifearchitect/internal/habits"
	"github.com/fyrsmithlabs/lifearchitect/internal/journal"
	"github.com/fyrsmithlabs/lifearchitect/internal/kv"
	"github.com/fyrsmithlabs/lifearchitect/internal/tasks"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeline"
	"github.com/fyrsmithlabs/lifearchitect/internal/timeparse"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps domain errors to HTTP status codes. The second result
// reports whether err's message is safe to show to the client.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, tasks.ErrNotFound),
		errors.Is(err, habits.ErrNotFound),
		errors.Is(err, timeline.ErrNotFound),
		errors.Is(err, goals.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, tasks.ErrInvalidInput),
		errors.Is(err, habits.ErrInvalidInput),
		errors.Is(err, timeline.ErrInvalidInput),
		errors.Is(err, journal.ErrInvalidInput),
		errors.Is(err, flows.ErrInvalidInput):
		return http.StatusBadRequest, true
	case errors.Is(err, goals.ErrAlreadyAccepted):
		return http.StatusConflict, true
	case errors.Is(err, timeparse.ErrUnrecognized):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, flows.ErrDisabled):
		return http.StatusServiceUnavailable, true
	case errors.Is(err, flows.ErrMalformedOutput):
		return http.StatusBadGateway, false
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, false
	case errors.Is(err, kv.ErrCorrupt):
		return http.StatusInternalServerError, false
	}
	return http.StatusInternalServerError, false
}

var publicMessages = map[int]string{
	http.StatusBadGateway:          flows.ErrMalformedOutput.Error(),
	http.StatusGatewayTimeout:      "the request timed out",
	http.StatusInternalServerError: "internal error",
}

// handleError renders err as an ErrorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	ctx := c.Request().Context()

	var (
		code int
		body ErrorResponse
		he   *echo.HTTPError
		ve   *timeline.ValidationError
	)
	switch {
	case errors.As(err, &he):
		code = he.Code
		body.Error = http.StatusText(code)
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		body = ErrorResponse{Error: "invalid event", Fields: ve.Fields}
	default:
		var public bool
		code, public = statusFor(err)
		if public {
			body.Error = err.Error()
		} else {
			body.Error = publicMessages[code]
		}
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error(ctx, "request failed", zap.Int("status", code), zap.Error(err))
	} else {
		s.logger.Debug(ctx, "request rejected", zap.Int("status", code), zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.logger.Error(ctx, "writing error response", zap.Error(err))
	}
}
