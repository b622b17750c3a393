package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SetIdentity stores the resolved identity on the request context.
// Written once per request by RequireLogin, read-only after that.
func SetIdentity(c echo.Context, userID uint, username string) {
	c.Set("userID", userID)
	c.Set("username", username)
}

func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized)
	}
	return id, nil
}

func Username(c echo.Context) (string, error) {
	name, ok := c.Get("username").(string)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized)
	}
	return name, nil
}
