package middleware // middleware provides shared request processing for handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-wishlist/internal/auth"
)

// AccessVerifier is the verification half of the token issuer. Only access
// token verification is needed here; refresh tokens never reach protected
// routes.
type AccessVerifier interface {
	VerifyAccess(raw string) (auth.Claims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the decoded identity into the request context under "user_id"
// (uint64) and "username" (string). Verification is pure signature+expiry
// checking: no storage round trip happens on protected requests.
//
// Missing, malformed, expired and tampered tokens all produce the same 401
// response body; expiry vs tamper is only distinguished in the server log.
func JWTAuth(verifier AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					c.Logger().Debugf("access token expired for %s", c.Path())
				} else {
					c.Logger().Debugf("access token rejected for %s: %v", c.Path(), err)
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("username", claims.Username)
			return next(c)
		}
	}
}
