package httpserver

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmgorelik/estore/internal/logging"
	"github.com/dmgorelik/estore/internal/models"
	"github.com/dmgorelik/estore/internal/oauth"
	"github.com/dmgorelik/estore/internal/service"
	"github.com/dmgorelik/estore/internal/session"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

type AuthHandler struct {
	Svc       *service.AuthService
	Session   *session.Transport
	Providers *oauth.Registry
	ClientURL string
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse carries the access token in the body; the refresh token
// travels only in the httpOnly cookie set alongside it.
type authResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Svc.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.Session.Attach(c, res.Pair.RefreshToken)
	return c.JSON(http.StatusCreated, authResponse{User: res.User, AccessToken: res.Pair.AccessToken})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}

	h.Session.Attach(c, res.Pair.RefreshToken)
	return c.JSON(http.StatusOK, authResponse{User: res.User, AccessToken: res.Pair.AccessToken})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := h.Session.Read(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(c.Request().Context(), raw)
	if err != nil {
		// The cookie the client sent is useless now, drop it.
		h.Session.Detach(c)
		return httpError(err)
	}

	h.Session.Attach(c, res.Pair.RefreshToken)
	return c.JSON(http.StatusOK, authResponse{User: res.User, AccessToken: res.Pair.AccessToken})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.Session.Detach(c)
	return c.JSON(http.StatusOK, true)
}

// OAuthStart redirects the browser to the provider's consent page. The
// random state round-trips through a short-lived cookie and is checked on
// callback.
func (h *AuthHandler) OAuthStart(c echo.Context) error {
	provider, err := h.Providers.Get(c.Param("provider"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}

	state, err := oauth.StateToken()
	if err != nil {
		return httpError(err)
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(stateCookieTTL),
		HttpOnly: true,
		Secure:   true,
	})
	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	ctx := c.Request().Context()

	provider, err := h.Providers.Get(c.Param("provider"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}

	stateCookie, err := c.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return echo.NewHTTPError(http.StatusUnauthorized, "oauth state mismatch")
	}
	c.SetCookie(&http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: true})

	code := c.QueryParam("code")
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "authorization code missing")
	}

	profile, err := provider.FetchProfile(ctx, code)
	if err != nil {
		logging.FromContext(ctx).Error("oauth_profile_fetch_failed", "provider", provider.Name(), "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "provider rejected the authorization code")
	}

	res, err := h.Svc.OAuthLogin(ctx, profile)
	if err != nil {
		return httpError(err)
	}

	h.Session.Attach(c, res.Pair.RefreshToken)
	redirect := h.ClientURL + "/profile?accessToken=" + url.QueryEscape(res.Pair.AccessToken)
	return c.Redirect(http.StatusFound, redirect)
}
