package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"oncoapp-gateway/internal/service"
)

// detail is the body of every gateway error response.
type detail struct {
	Detail any `json:"detail"`
}

// relay forwards one call through f and writes the backend's answer, or the
// translated error, to c.
type relay struct {
	fw     *service.Forwarder
	logger *slog.Logger
}

func newRelay(fw *service.Forwarder, logger *slog.Logger, component string) relay {
	return relay{fw: fw, logger: logger.With("component", component)}
}

func (r relay) do(c echo.Context, call service.Call) error {
	req := c.Request()

	if call.Header == nil {
		call.Header = req.Header.Clone()
	}
	// The RequestID middleware stamps the response; pass the same id on.
	if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
		call.Header.Set(echo.HeaderXRequestID, rid)
	}

	resp, err := r.fw.Forward(req.Context(), call)
	if err != nil {
		return r.mapError(c, call, err)
	}

	if resp.Body == nil {
		return c.NoContent(resp.StatusCode)
	}
	return c.JSONBlob(resp.StatusCode, resp.Body)
}

func (r relay) mapError(c echo.Context, call service.Call, err error) error {
	attrs := []any{
		"err", err,
		"method", call.Method,
		"endpoint", call.Endpoint,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if errors.Is(err, service.ErrMissingCredential) {
		r.logger.Info("rejected request without credential", attrs...)
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return c.JSON(http.StatusUnauthorized, detail{Detail: err.Error()})
	}

	if errors.Is(err, service.ErrMethodNotSupported) {
		r.logger.Warn("method not supported", attrs...)
		return c.JSON(http.StatusMethodNotAllowed, detail{Detail: err.Error()})
	}

	var be *service.BackendError
	if errors.As(err, &be) {
		r.logger.Warn("backend returned error", append(attrs, "status", be.StatusCode)...)
		return c.JSON(be.StatusCode, detail{Detail: be.Detail})
	}

	var ue *service.UnreachableError
	if errors.As(err, &ue) {
		r.logger.Error("backend unreachable", attrs...)
		return c.JSON(http.StatusBadGateway, detail{Detail: ue.Error()})
	}

	r.logger.Error("forwarding failed", attrs...)
	return c.JSON(http.StatusInternalServerError, detail{Detail: "internal gateway error"})
}

// requireBearer rejects a request that carries no bearer credential when the
// route needs one. It runs ahead of the handler so a missing token is reported
// before the body or the query is decoded.
func requireBearer(policy service.AuthPolicy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if policy == service.AuthRequired && service.BearerToken(c.Request().Header) == "" {
				return service.ErrMissingCredential
			}
			return next(c)
		}
	}
}

// pathParam returns the named path parameter re-escaped as a single path
// segment, so a value cannot address a different backend route.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return url.PathEscape(v)
}
