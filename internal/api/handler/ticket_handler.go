package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/core/ports"
)

// TicketHandler exposes support tickets read-only.
type TicketHandler struct {
	service ports.TicketService
}

func NewTicketHandler(service ports.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

// @Summary      My support tickets
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  listResponse[domain.SupportTicket]
// @Router       /v1/tickets [get]
func (h *TicketHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(tickets))
}

// @Summary      All support tickets
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  listResponse[domain.SupportTicket]
// @Failure      403  {object}  map[string]string
// @Router       /v1/admin/tickets [get]
func (h *TicketHandler) AdminList(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListAll(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(tickets))
}
