package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradeloom/portal/internal/api/metrics"
	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

// LicenseHandler serves both the trader license views and the admin approval
// workflow.
type LicenseHandler struct {
	service ports.LicenseService
}

func NewLicenseHandler(service ports.LicenseService) *LicenseHandler {
	return &LicenseHandler{service: service}
}

// List returns the caller's own licenses.
//
// @Summary      My licenses
// @Tags         licenses
// @Security     BearerAuth
// @Produce      json
// @Success      200   {object}  listResponse[domain.License]
// @Failure      401   {object}  map[string]string
// @Router       /v1/licenses [get]
func (h *LicenseHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	licenses, err := h.service.ListForUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(licenses))
}

// Create charges the license price and files a pending license for the caller.
// The payment step takes a moment; once it starts it always completes.
//
// @Summary      Request a new license
// @Tags         licenses
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                false  "Client-generated key to make retries safe"
// @Param        body             body      createLicenseRequest  true   "MT5 account to bind"
// @Success      201              {object}  licenseRequestResponse
// @Success      200              {object}  licenseRequestResponse  "Replayed request"
// @Failure      401              {object}  map[string]string
// @Failure      422              {object}  map[string]string
// @Router       /v1/licenses [post]
func (h *LicenseHandler) Create(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req createLicenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	start := time.Now()
	res, err := h.service.Create(c.Request().Context(), ports.CreateLicenseInput{
		UserID:         user.ID,
		MT5AccountID:   req.MT5AccountID,
		BrokerServer:   req.BrokerServer,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	if res.Replayed {
		metrics.LicenseRequestsTotal.WithLabelValues("replayed").Inc()
		return c.JSON(http.StatusOK, toLicenseRequestResponse(res))
	}
	metrics.LicenseRequestsTotal.WithLabelValues("created").Inc()
	metrics.LicenseRequestDuration.Observe(time.Since(start).Seconds())
	metrics.PaymentsRecordedTotal.Inc()
	metrics.PaymentAmountTotal.Add(float64(res.Payment.Amount))
	return c.JSON(http.StatusCreated, toLicenseRequestResponse(res))
}

// AdminList returns every license, optionally filtered by status.
//
// @Summary      All licenses
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "pending, active, suspended, expired or all"
// @Success      200     {object}  listResponse[domain.License]
// @Failure      403     {object}  map[string]string
// @Failure      422     {object}  map[string]string
// @Router       /v1/admin/licenses [get]
func (h *LicenseHandler) AdminList(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	licenses, err := h.service.ListAll(c.Request().Context(), user, c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newList(licenses))
}

// Approve issues a key for a pending license.
//
// @Summary      Approve a pending license
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "License ID"
// @Param        body  body      approveLicenseRequest  true  "Key to issue"
// @Success      200   {object}  domain.License
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/admin/licenses/{id}/approve [post]
func (h *LicenseHandler) Approve(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req approveLicenseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lic, err := h.service.Approve(c.Request().Context(), user, c.Param("id"), req.Key)
	countAction("approve", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lic)
}

// Reject discards a pending license request.
//
// @Summary      Reject a pending license
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "License ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/admin/licenses/{id}/reject [post]
func (h *LicenseHandler) Reject(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	err = h.service.Reject(c.Request().Context(), user, c.Param("id"))
	countAction("reject", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Suspend freezes an active license.
//
// @Summary      Suspend an active license
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "License ID"
// @Success      200  {object}  domain.License
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/admin/licenses/{id}/suspend [post]
func (h *LicenseHandler) Suspend(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	lic, err := h.service.Suspend(c.Request().Context(), user, c.Param("id"))
	countAction("suspend", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lic)
}

// Reinstate reactivates a suspended license.
//
// @Summary      Reinstate a suspended license
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "License ID"
// @Success      200  {object}  domain.License
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/admin/licenses/{id}/reinstate [post]
func (h *LicenseHandler) Reinstate(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	lic, err := h.service.Reinstate(c.Request().Context(), user, c.Param("id"))
	countAction("reinstate", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lic)
}

// Delete removes a license whatever its status.
//
// @Summary      Delete a license
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "License ID"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/licenses/{id} [delete]
func (h *LicenseHandler) Delete(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	err = h.service.Delete(c.Request().Context(), user, c.Param("id"))
	countAction("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func countAction(action string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		result = "conflict"
	default:
		result = "error"
	}
	metrics.LicenseActionsTotal.WithLabelValues(action, result).Inc()
}
