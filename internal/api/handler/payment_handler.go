package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/core/ports"
)

type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// List returns the caller's billing history, newest first.
//
// @Summary      My payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  listResponse[domain.Payment]
// @Failure      401  {object}  map[string]string
// @Router       /v1/payments [get]
func (h *PaymentHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	payments, err := h.service.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(payments))
}

// AdminList returns the whole ledger.
//
// @Summary      All payments
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  listResponse[domain.Payment]
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/payments [get]
func (h *PaymentHandler) AdminList(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	payments, err := h.service.ListAll(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(payments))
}
