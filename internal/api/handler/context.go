package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/neocdt/cdt-bank-api/internal/core/ports"
)

// ctxCaller extracts the auth claims injected by the Auth middleware and
// fast-fails before any service call: both subject and role must be present,
// their absence means the middleware did not run or the token carried no
// usable identity.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("rol").(string)
	if userID == "" || role == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return ports.Caller{ID: userID, Role: role}, nil
}
