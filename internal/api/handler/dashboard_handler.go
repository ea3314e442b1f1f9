package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/core/ports"
)

const recentPaymentsLimit = 5

// DashboardHandler serves the summary pages of both portal areas.
type DashboardHandler struct {
	overview ports.OverviewService
	payments ports.PaymentService
	identity ports.IdentityService
}

func NewDashboardHandler(overview ports.OverviewService, payments ports.PaymentService, identity ports.IdentityService) *DashboardHandler {
	return &DashboardHandler{overview: overview, payments: payments, identity: identity}
}

// Dashboard summarises the caller's licenses and spend.
//
// @Summary      Trader dashboard
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  userOverviewResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/dashboard [get]
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	ov, err := h.overview.UserOverview(ctx, user.ID)
	if err != nil {
		return err
	}
	payments, err := h.payments.ListForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(payments) > recentPaymentsLimit {
		payments = payments[:recentPaymentsLimit]
	}

	return c.JSON(http.StatusOK, userOverviewResponse{
		User:           user,
		ActiveLicenses: ov.ActiveLicenses,
		TotalLicenses:  ov.TotalLicenses,
		TotalSpent:     ov.TotalSpent,
		RecentPayments: payments,
	})
}

// AdminOverview summarises the whole portal.
//
// @Summary      Admin overview
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  adminOverviewResponse
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/overview [get]
func (h *DashboardHandler) AdminOverview(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	ov, err := h.overview.AdminOverview(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAdminOverviewResponse(ov))
}

// Users lists every known identity.
//
// @Summary      All users
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  listResponse[domain.User]
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/users [get]
func (h *DashboardHandler) Users(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	users, err := h.identity.ListUsers(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(users))
}
