package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// hopByHopHeaders apply to a single connection and are never passed on.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// SecurityHeaders returns an Echo middleware that adds security headers to
// every response and strips hop-by-hop headers from the incoming request.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header
			for _, v := range h.Values("Connection") {
				for _, name := range strings.Split(v, ",") {
					if name = strings.TrimSpace(name); name != "" {
						h.Del(name)
					}
				}
			}
			for _, name := range hopByHopHeaders {
				h.Del(name)
			}

			// Set before next: the handler commits the response.
			res := c.Response().Header()
			res.Set(echo.HeaderXContentTypeOptions, "nosniff")
			res.Set(echo.HeaderXFrameOptions, "DENY")
			res.Set(echo.HeaderReferrerPolicy, "no-referrer")

			return next(c)
		}
	}
}
