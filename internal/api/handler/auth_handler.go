package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/api/metrics"
	"github.com/tradeloom/portal/internal/api/middleware"
	"github.com/tradeloom/portal/internal/core/ports"
)

type AuthHandler struct {
	identity ports.IdentityService
}

func NewAuthHandler(identity ports.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Login resolves an email to a portal identity and opens a session. There is
// no password: any non-empty email is accepted. A session named by a bearer
// token on the same request is closed first.
//
// @Summary      Login by email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Email to sign in with"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if token, err := middleware.BearerToken(c.Request()); err == nil {
		if sid, err := h.identity.ParseToken(token); err == nil {
			if err := h.identity.Logout(ctx, sid); err != nil {
				return err
			}
		}
	}

	res, err := h.identity.Login(ctx, req.Email)
	if err != nil {
		return err
	}
	metrics.LoginsTotal.WithLabelValues(res.User.Role).Inc()

	return c.JSON(http.StatusOK, loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User})
}

// Logout ends the current session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.identity.Logout(c.Request().Context(), ctxSessionID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the session identity.
//
// @Summary      Current identity
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  domain.User
// @Failure      401   {object}  map[string]string
// @Router       /v1/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
