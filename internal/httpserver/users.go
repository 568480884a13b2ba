package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmgorelik/estore/internal/middleware"
	"github.com/dmgorelik/estore/internal/service"
)

type UsersHandler struct {
	Svc *service.UsersService
}

// Profile returns the account of the caller identified by the verified
// access token.
func (h *UsersHandler) Profile(c echo.Context) error {
	user, err := h.Svc.GetByID(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}
