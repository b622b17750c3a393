package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tobywinn/giftlist/internal/token"
)

// CookieName is the session cookie carrying the opaque bearer token.
const CookieName = "auth_token"

type Gate struct {
	Tokens *token.Service
}

// RequireLogin resolves the auth_token cookie to a user before any
// handler runs. A missing cookie is treated as an empty token; every
// failure mode collapses into the same bare 401.
func (g *Gate) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		value := ""
		if ck, err := c.Cookie(CookieName); err == nil {
			value = ck.Value
		}

		user, err := g.Tokens.Validate(value)
		if err != nil {
			if errors.Is(err, token.ErrInvalid) {
				return echo.NewHTTPError(http.StatusUnauthorized)
			}
			c.Logger().Errorf("token validation error: %v", err)
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		SetIdentity(c, user.ID, user.Username)
		return next(c)
	}
}
