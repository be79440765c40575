package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// jsonOnlyCSP forbids every subresource; the server never returns HTML.
const jsonOnlyCSP = "default-src 'none'; frame-ancestors 'none'"

// NewCORS lets the browser front end at origins call the API. An empty list
// allows any origin. Credentials are never allowed since the API is
// unauthenticated and bound to a local address.
func NewCORS(origins []string) echo.MiddlewareFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestID,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	})
}

// NewSecureHeaders sets response headers for a JSON-only API served over
// plain HTTP on localhost, so no HSTS.
func NewSecureHeaders() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: jsonOnlyCSP,
		ReferrerPolicy:        "no-referrer",
	})
}

// NewBodyLimit caps request bodies, e.g. "32M"; photo uploads are the
// largest requests.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}

// NewRequestID tags every request with an X-Request-ID header, reusing the
// caller's id when present.
func NewRequestID(generator func() string) echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: generator,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(echo.HeaderXRequestID, id)
		},
	})
}
