package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/dmgorelik/estore/internal/middleware"
)

type Deps struct {
	Logger    *slog.Logger
	Guard     *mw.Guard
	Auth      *AuthHandler
	Users     *UsersHandler
	Dashboard *DashboardHandler
	Products  *ProductHandler
	ClientURL string
}

// New assembles the echo instance. Every route carries an explicit
// authorization Requirement so the policy is readable in one place.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(mw.RequestLogger(d.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{d.ClientURL},
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	guard := d.Guard.Require

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}, guard(mw.Public))

	e.POST("/auth/register", d.Auth.Register, guard(mw.Public))
	e.POST("/auth/login", d.Auth.Login, guard(mw.Public))
	e.POST("/auth/refresh", d.Auth.Refresh, guard(mw.Public))
	e.POST("/auth/logout", d.Auth.Logout, guard(mw.Public))
	e.GET("/auth/:provider", d.Auth.OAuthStart, guard(mw.Public))
	e.GET("/auth/:provider/callback", d.Auth.OAuthCallback, guard(mw.Public))

	e.GET("/users/profile", d.Users.Profile, guard(mw.Authenticated))

	e.GET("/dashboard/settings/users", d.Dashboard.ListUsers, guard(mw.AdminOnly))
	e.GET("/dashboard/settings/users/:id", d.Dashboard.GetUser, guard(mw.AdminOnly))
	e.PATCH("/dashboard/settings/users/:id", d.Dashboard.UpdateUserRole, guard(mw.AdminOnly))

	e.GET("/product", d.Products.List, guard(mw.Public))
	e.GET("/product/search", d.Products.Search, guard(mw.Public))
	e.GET("/product/:id", d.Products.Get, guard(mw.Public))
	e.POST("/product", d.Products.Create, guard(mw.StaffOnly))
	e.PATCH("/product/:id", d.Products.Patch, guard(mw.StaffOnly))
	e.DELETE("/product/:id", d.Products.Delete, guard(mw.AdminOnly))

	return e
}
