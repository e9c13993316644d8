package middleware

// identity.go holds helpers shared across the middleware files. The rate
// limiter uses rateIdentity to bucket authenticated traffic per user instead
// of per address.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// rateIdentity returns a stable identifier for the requester: the user id
// injected by JWTAuth when present, "guest" otherwise.
func rateIdentity(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case uint64:
		return strconv.FormatUint(v, 10)
	case string:
		if v != "" {
			return v
		}
	}
	return "guest"
}
