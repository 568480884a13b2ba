package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dmgorelik/estore/internal/search"
	"github.com/dmgorelik/estore/internal/service"
)

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserExists):
		return echo.NewHTTPError(http.StatusBadRequest, "user already registered")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "not authorized, token invalid")
	case errors.Is(err, service.ErrAccountConflict):
		return echo.NewHTTPError(http.StatusConflict, "account is linked to another identity")
	case errors.Is(err, search.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
