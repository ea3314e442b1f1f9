package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/tradeloom/portal/internal/api/handler"
	"github.com/tradeloom/portal/internal/api/middleware"
	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"

	_ "github.com/tradeloom/portal/docs"
)

// Deps are the services the HTTP layer is built from.
type Deps struct {
	Log       zerolog.Logger
	Identity  ports.IdentityService
	Licenses  ports.LicenseService
	Payments  ports.PaymentService
	Investors ports.InvestorService
	Overview  ports.OverviewService
	Tickets   ports.TicketService

	// Checks feed the readiness probe, keyed by dependency name.
	Checks map[string]handler.Checker

	// Registerer and Gatherer back the HTTP metrics and /metrics. nil means
	// the Prometheus defaults.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:                 "tradeloom",
		Subsystem:                 "http",
		Registerer:                d.Registerer,
		DoNotUseRequestPathFor404: true,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Identity)
	licenseHandler := handler.NewLicenseHandler(d.Licenses)
	paymentHandler := handler.NewPaymentHandler(d.Payments)
	investorHandler := handler.NewInvestorHandler(d.Investors)
	dashboardHandler := handler.NewDashboardHandler(d.Overview, d.Payments, d.Identity)
	ticketHandler := handler.NewTicketHandler(d.Tickets)
	healthHandler := handler.NewHealthHandler(d.Checks)

	// --- Operational endpoints (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	v1 := e.Group("/v1")

	// --- Public ---
	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/investor-requests", investorHandler.Submit)

	// --- Signed in ---
	auth := middleware.Auth(d.Identity)
	signedIn := []echo.MiddlewareFunc{auth, middleware.RequireAccess(domain.ResourceDashboard)}
	v1.POST("/auth/logout", authHandler.Logout, signedIn...)
	v1.GET("/auth/me", authHandler.Me, signedIn...)
	v1.GET("/dashboard", dashboardHandler.Dashboard, signedIn...)
	v1.GET("/licenses", licenseHandler.List, signedIn...)
	v1.POST("/licenses", licenseHandler.Create, signedIn...)
	v1.GET("/payments", paymentHandler.List, signedIn...)
	v1.GET("/tickets", ticketHandler.List, signedIn...)

	// --- Admin panel ---
	admin := v1.Group("/admin", auth, middleware.RequireAccess(domain.ResourceAdminPanel))
	admin.GET("/overview", dashboardHandler.AdminOverview)
	admin.GET("/users", dashboardHandler.Users)
	admin.GET("/licenses", licenseHandler.AdminList)
	admin.POST("/licenses/:id/approve", licenseHandler.Approve)
	admin.POST("/licenses/:id/reject", licenseHandler.Reject)
	admin.POST("/licenses/:id/suspend", licenseHandler.Suspend)
	admin.POST("/licenses/:id/reinstate", licenseHandler.Reinstate)
	admin.DELETE("/licenses/:id", licenseHandler.Delete)
	admin.GET("/payments", paymentHandler.AdminList)
	admin.GET("/investor-requests", investorHandler.AdminList)
	admin.POST("/investor-requests/:id/resolve", investorHandler.Resolve)
	admin.GET("/tickets", ticketHandler.AdminList)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Error != nil:
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
