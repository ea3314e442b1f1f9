package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/api/middleware"
	"github.com/tradeloom/portal/internal/core/domain"
)

// ctxUser extracts the identity injected by the Auth middleware. Its absence
// means the route was mounted without authentication.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.ContextUser).(*domain.User)
	if user == nil || user.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	return user, nil
}

func ctxSessionID(c echo.Context) string {
	sid, _ := c.Get(middleware.ContextSessionID).(string)
	return sid
}
