package cmd

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// apiKeyMiddleware requires the x-api-key header to match expected.
func apiKeyMiddleware(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			apiKey := c.Request().Header.Get("x-api-key")

			if apiKey == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing x-api-key header")
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
			}

			return next(c)
		}
	}
}
