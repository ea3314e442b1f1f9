package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/api/metrics"
	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

type InvestorHandler struct {
	service ports.InvestorService
}

func NewInvestorHandler(service ports.InvestorService) *InvestorHandler {
	return &InvestorHandler{service: service}
}

// Submit files an investor access request. No sign-in is needed.
//
// @Summary      Request investor access
// @Tags         investors
// @Accept       json
// @Produce      json
// @Param        body  body      investorSubmitRequest  true  "Contact email"
// @Success      201   {object}  domain.InvestorRequest
// @Failure      422   {object}  map[string]string
// @Router       /v1/investor-requests [post]
func (h *InvestorHandler) Submit(c echo.Context) error {
	var req investorSubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	created, err := h.service.Submit(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}
	metrics.InvestorRequestsTotal.WithLabelValues("submitted").Inc()
	return c.JSON(http.StatusCreated, created)
}

// AdminList returns pending (default) or sent requests.
//
// @Summary      Investor requests
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending (default) or sent"
// @Success      200     {object}  listResponse[domain.InvestorRequest]
// @Failure      403     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /v1/admin/investor-requests [get]
func (h *InvestorHandler) AdminList(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var requests []domain.InvestorRequest
	switch domain.InvestorRequestStatus(c.QueryParam("status")) {
	case "", domain.InvestorPending:
		requests, err = h.service.ListPending(c.Request().Context(), user)
	case domain.InvestorSent:
		requests, err = h.service.ListSent(c.Request().Context(), user)
	default:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "status must be one of: pending sent")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(requests))
}

// Resolve sends investor credentials to the requester and marks the request
// sent.
//
// @Summary      Resolve an investor request
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Request ID"
// @Param        body  body      investorResolveRequest  true  "Credentials to send"
// @Success      200   {object}  domain.InvestorRequest
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/admin/investor-requests/{id}/resolve [post]
func (h *InvestorHandler) Resolve(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req investorResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	resolved, err := h.service.Resolve(c.Request().Context(), user, c.Param("id"), domain.InvestorCredentials{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	metrics.InvestorRequestsTotal.WithLabelValues("resolved").Inc()
	return c.JSON(http.StatusOK, resolved)
}
