package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/service"
	"oncoapp-gateway/internal/validate"
)

// responseStatus resolves the status code of a finished request. When a
// handler returns an error the status hasn't been written yet; Echo's central
// error handler writes it after the middleware chain unwinds, so the code is
// derived from the error the same way that handler does.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}

	if errors.Is(err, service.ErrMissingCredential) {
		return http.StatusUnauthorized
	}

	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return http.StatusUnprocessableEntity
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}

	return http.StatusInternalServerError
}
