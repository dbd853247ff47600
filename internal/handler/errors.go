package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/service"
	"oncoapp-gateway/internal/validate"
)

// NewErrorHandler returns the echo error handler. A missing credential becomes
// 401 with a Bearer challenge and validation failures become 422 with the field
// error list. Framework errors keep their status. Every body has the
// {"detail": ...} shape.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)
		if status == http.StatusUnauthorized {
			c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"err", err,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}

func errorResponse(err error) (int, detail) {
	if errors.Is(err, service.ErrMissingCredential) {
		return http.StatusUnauthorized, detail{Detail: err.Error()}
	}

	var verrs validate.Errors
	if errors.As(err, &verrs) {
		return http.StatusUnprocessableEntity, detail{Detail: verrs}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := he.Message
		if s, ok := msg.(string); ok {
			return he.Code, detail{Detail: s}
		}
		if msg == nil {
			msg = http.StatusText(he.Code)
		}
		return he.Code, detail{Detail: fmt.Sprint(msg)}
	}

	return http.StatusInternalServerError, detail{Detail: http.StatusText(http.StatusInternalServerError)}
}
