package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/health-keeper/internal/convert"
	"github.com/and161185/health-keeper/internal/errs"
)

type errorMapping struct {
	target  error
	status  int
	message string // empty means err.Error() is safe to return
}

// Order matters: the first match wins.
var errorTable = []errorMapping{
	{errs.ErrValidation, http.StatusBadRequest, ""},
	{errs.ErrUnknownCategory, http.StatusBadRequest, ""},
	{errs.ErrDuplicateEmail, http.StatusConflict, "email already registered"},
	{errs.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "too many login attempts, try again later"},
	{errs.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{errs.ErrTokenExpired, http.StatusUnauthorized, "unauthorized"},
	{errs.ErrUnknownUser, http.StatusUnauthorized, "unauthorized"},
	{errs.ErrNotFound, http.StatusNotFound, "not found"},
}

// statusFor maps err to an HTTP status and a message safe to show to clients.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			if m.message == "" {
				return m.status, err.Error()
			}
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "internal error"
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	} else {
		s.log.Debug("request rejected",
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", code),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, convert.ErrorResponse{Error: msg})
	}
	if err != nil {
		s.log.Warn("write error response", zap.Error(err))
	}
}
