package middleware

import "github.com/labstack/echo/v4"

// clientID returns the authenticated client's subject claim, or "anon" when
// the request carries no verified token.
func clientID(c echo.Context) string {
	if s, ok := c.Get("client_id").(string); ok && s != "" {
		return s
	}
	return "anon"
}
