package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"oncoapp-gateway/internal/config"
)

// CORS returns the cross-origin middleware for the configured policy. An
// empty origin list allows every origin. When the wildcard origin is combined
// with credentials the request origin is reflected back, so browsers accept
// credentialed responses from any site.
func CORS(cfg *config.Config) echo.MiddlewareFunc {
	origins := cfg.CORS.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	credentials := cfg.CORS.AllowCredentials != nil && *cfg.CORS.AllowCredentials

	c := echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowCredentials: credentials,
		ExposeHeaders:    []string{echo.HeaderXRequestID},
	}
	c.UnsafeWildcardOriginWithAllowCredentials = credentials && slices.Contains(origins, "*")

	return echomw.CORSWithConfig(c)
}
