package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dmgorelik/estore/internal/tokens"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"

	accessCookieName = "accessToken"
)

type Guard struct {
	Issuer *tokens.Issuer
}

// Require builds the per-request authorization decision for one endpoint.
// Rules short-circuit: public allows without touching the token; then the
// access token must verify; then the role claim must be in the required
// set. The verified identity is attached to the request context.
func (g *Guard) Require(req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if req.Public {
				return next(c)
			}

			raw, ok := extractAccessToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			claims, err := g.Issuer.VerifyAccess(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			if !req.allows(claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}

func extractAccessToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok && tok != "" {
			return tok, true
		}
		return "", false
	}
	if ck, err := c.Cookie(accessCookieName); err == nil && ck.Value != "" {
		return ck.Value, true
	}
	return "", false
}

func UserID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

func Role(c echo.Context) string {
	role, _ := c.Get(ctxRole).(string)
	return role
}
