package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmgorelik/estore/internal/models"
	"github.com/dmgorelik/estore/internal/tokens"
)

func newTestGuard() *Guard {
	return &Guard{Issuer: &tokens.Issuer{
		Secret:     []byte("test-jwt-secret"),
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
	}}
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"user_id": UserID(c), "role": Role(c)})
}

func doGuarded(t *testing.T, g *Guard, req Requirement, mutate func(*http.Request)) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(r)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(r, rec)
	err := g.Require(req)(okHandler)(c)
	return rec, err
}

func accessTokenFor(t *testing.T, g *Guard, role string) string {
	t.Helper()
	pair, err := g.Issuer.IssuePair("user-1", role)
	require.NoError(t, err)
	return pair.AccessToken
}

func TestGuard_PublicAllowsWithoutToken(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	rec, err := doGuarded(t, g, Public, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_PublicIgnoresMalformedAuthHeader(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	rec, err := doGuarded(t, g, Public, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer not-a-valid-jwt")
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_MissingToken(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	_, err := doGuarded(t, g, Authenticated, nil)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGuard_InvalidToken(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	_, err := doGuarded(t, g, Authenticated, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer garbage")
	})
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGuard_ExpiredToken(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	expired := &tokens.Issuer{Secret: g.Issuer.Secret, AccessTTL: -time.Minute, RefreshTTL: -time.Minute}
	pair, err := expired.IssuePair("user-1", models.RoleUser)
	require.NoError(t, err)

	_, guardErr := doGuarded(t, g, Authenticated, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
	})
	he, ok := guardErr.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGuard_RoleMatrix(t *testing.T) {
	t.Parallel()

	g := newTestGuard()

	tests := []struct {
		name     string
		req      Requirement
		role     string
		wantCode int
	}{
		{name: "admin required, user token", req: AdminOnly, role: models.RoleUser, wantCode: http.StatusForbidden},
		{name: "admin required, admin token", req: AdminOnly, role: models.RoleAdmin, wantCode: http.StatusOK},
		{name: "staff required, employees token", req: StaffOnly, role: models.RoleEmployees, wantCode: http.StatusOK},
		{name: "staff required, user token", req: StaffOnly, role: models.RoleUser, wantCode: http.StatusForbidden},
		{name: "authenticated, any role", req: Authenticated, role: models.RoleUser, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tok := accessTokenFor(t, g, tt.role)
			rec, err := doGuarded(t, g, tt.req, func(r *http.Request) {
				r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
			})
			if tt.wantCode == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, he.Code)
		})
	}
}

func TestGuard_RefreshTokenRejectedAsAccess(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	pair, err := g.Issuer.IssuePair("user-1", models.RoleAdmin)
	require.NoError(t, err)

	_, guardErr := doGuarded(t, g, Authenticated, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.RefreshToken)
	})
	he, ok := guardErr.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestGuard_CookieFallback(t *testing.T) {
	t.Parallel()

	g := newTestGuard()
	tok := accessTokenFor(t, g, models.RoleUser)

	rec, err := doGuarded(t, g, Authenticated, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: tok})
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
