package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/core/domain"
)

// errorResponse is the body of every failed API call.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// errorStatus maps a domain sentinel to its HTTP status. An empty message
// means err.Error() is safe to show the caller as is.
type errorStatus struct {
	target  error
	code    int
	message string
}

var errorStatuses = []errorStatus{
	{domain.ErrLicenseNotFound, http.StatusNotFound, "license not found"},
	{domain.ErrPaymentNotFound, http.StatusNotFound, "payment not found"},
	{domain.ErrInvestorRequestNotFound, http.StatusNotFound, "investor request not found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
	{domain.ErrInvalidTransition, http.StatusConflict, ""},
	{domain.ErrUserExists, http.StatusConflict, "user already exists"},
	{domain.ErrIdempotencyKeyUsed, http.StatusConflict, ""},
	{domain.ErrInvalidInput, http.StatusUnprocessableEntity, ""},
	{domain.ErrSessionNotFound, http.StatusUnauthorized, "session expired or invalid"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "session expired or invalid"},
}

// NewHTTPErrorHandler renders handler errors as errorResponse. Domain errors
// get their mapped status; anything unknown is logged and hidden behind a 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{
			Error:     msg,
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		})
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}
	for _, s := range errorStatuses {
		if !errors.Is(err, s.target) {
			continue
		}
		if s.message == "" {
			return s.code, err.Error()
		}
		return s.code, s.message
	}
	return http.StatusInternalServerError, "internal server error"
}
