package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func setCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestTransport_Attach(t *testing.T) {
	t.Parallel()

	tr := &Transport{Name: "refreshToken", Domain: "shop.example.com", Days: 7, Production: true}
	c, rec := newTestContext(t)

	tr.Attach(c, "the-refresh-token")

	ck := setCookie(t, rec, "refreshToken")
	assert.Equal(t, "the-refresh-token", ck.Value)
	assert.Equal(t, "shop.example.com", ck.Domain)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 7), ck.Expires, time.Minute)
}

func TestTransport_Attach_NonProductionSameSite(t *testing.T) {
	t.Parallel()

	tr := &Transport{Name: "refreshToken", Days: 7, Production: false}
	c, rec := newTestContext(t)

	tr.Attach(c, "tok")

	ck := setCookie(t, rec, "refreshToken")
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
}

func TestTransport_Detach(t *testing.T) {
	t.Parallel()

	tr := &Transport{Name: "refreshToken", Days: 7}
	c, rec := newTestContext(t)

	tr.Detach(c)

	ck := setCookie(t, rec, "refreshToken")
	assert.Empty(t, ck.Value)
	assert.True(t, ck.Expires.Before(time.Now()))
	assert.Equal(t, -1, ck.MaxAge)
}

func TestTransport_Read(t *testing.T) {
	t.Parallel()

	tr := &Transport{Name: "refreshToken"}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "tok"})
	c := e.NewContext(req, httptest.NewRecorder())

	v, ok := tr.Read(c)
	require.True(t, ok)
	assert.Equal(t, "tok", v)

	c2, _ := newTestContext(t)
	_, ok = tr.Read(c2)
	assert.False(t, ok)
}
