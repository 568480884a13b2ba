package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Transport binds the refresh token to the client via a scoped cookie.
// The cookie lifetime is its own configuration knob (days) and is not
// derived from the refresh token's signed expiry.
type Transport struct {
	Name       string
	Domain     string
	Days       int
	Production bool
}

func (t *Transport) Attach(c echo.Context, refreshToken string) {
	c.SetCookie(&http.Cookie{
		Name:     t.Name,
		Value:    refreshToken,
		Path:     "/",
		Domain:   t.Domain,
		Expires:  time.Now().AddDate(0, 0, t.Days),
		HttpOnly: true,
		Secure:   true,
		SameSite: t.sameSite(),
	})
}

func (t *Transport) Detach(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     t.Name,
		Value:    "",
		Path:     "/",
		Domain:   t.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: t.sameSite(),
	})
}

func (t *Transport) Read(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(t.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Cross-site None is only allowed outside production, where the SPA and the
// API run on different origins during development.
func (t *Transport) sameSite() http.SameSite {
	if t.Production {
		return http.SameSiteLaxMode
	}
	return http.SameSiteNoneMode
}
