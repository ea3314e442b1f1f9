// Package app assembles the portal from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tradeloom/portal/internal/api"
	"github.com/tradeloom/portal/internal/api/handler"
	"github.com/tradeloom/portal/internal/api/metrics"
	"github.com/tradeloom/portal/internal/core/ports"
	"github.com/tradeloom/portal/internal/core/service"
	"github.com/tradeloom/portal/internal/infrastructure/config"
	"github.com/tradeloom/portal/internal/infrastructure/db/memory"
	mongostore "github.com/tradeloom/portal/internal/infrastructure/db/mongo"
	redisstore "github.com/tradeloom/portal/internal/infrastructure/db/redis"
	"github.com/tradeloom/portal/internal/infrastructure/notify"
	"github.com/tradeloom/portal/internal/infrastructure/queue"
	"github.com/tradeloom/portal/internal/infrastructure/seed"
)

const shutdownTimeout = 15 * time.Second

// stores is one complete set of persistence adapters.
type stores struct {
	users     ports.UserRepository
	licenses  ports.LicenseRepository
	payments  ports.PaymentRepository
	investors ports.InvestorRequestRepository
	tickets   ports.TicketRepository
	sessions  ports.SessionStore
	idem      ports.IdempotencyStore
}

type App struct {
	server     *http.Server
	log        zerolog.Logger
	dispatcher *queue.Dispatcher
	closers    []func(context.Context) error
}

// New connects the configured backends, seeds them when asked and builds the
// HTTP server. Nothing is served until Run.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{log: log}
	checks := map[string]handler.Checker{}

	st, err := a.openStores(ctx, cfg, checks)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	if cfg.Seed {
		seeded, err := seed.Apply(ctx, seed.Target{
			Users:    st.users,
			Licenses: st.licenses,
			Payments: st.payments,
			Tickets:  st.tickets,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		log.Info().Bool("written", seeded).Msg("demo data checked")
	}

	a.dispatcher = queue.NewDispatcher(
		cfg.Notify.Workers,
		notify.NewLogNotifier(log),
		metrics.ObserveNotification,
		log,
	)

	identity := service.NewIdentityService(st.users, st.sessions, cfg.JWTSecret, cfg.SessionTTL, log)
	ledger := service.NewPaymentService(st.payments, log)
	licenses := service.NewLicenseService(
		st.licenses, st.users, ledger, st.idem, a.dispatcher,
		service.LicenseOptions{Price: cfg.License.Price, ProcessingDelay: cfg.License.PaymentDelay},
		log,
	)

	router := api.NewRouter(api.Deps{
		Log:       log,
		Identity:  identity,
		Licenses:  licenses,
		Payments:  ledger,
		Investors: service.NewInvestorService(st.investors, a.dispatcher, log),
		Overview:  service.NewOverviewService(st.users, st.licenses, st.payments, st.investors),
		Tickets:   service.NewTicketService(st.tickets),
		Checks:    checks,
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config, checks map[string]handler.Checker) (*stores, error) {
	st := &stores{}

	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		a.closers = append(a.closers, func(ctx context.Context) error { return client.Disconnect(ctx) })
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		checks["mongodb"] = func(ctx context.Context) error { return mongostore.Ping(ctx, client) }
		st.users = mongostore.NewUserRepository(db)
		st.licenses = mongostore.NewLicenseRepository(db)
		st.payments = mongostore.NewPaymentRepository(db)
		st.investors = mongostore.NewInvestorRequestRepository(db)
		st.tickets = mongostore.NewTicketRepository(db)
		a.log.Info().Str("database", cfg.Mongo.Database).Msg("using mongodb store")
	default:
		st.users = memory.NewUserRepository()
		st.licenses = memory.NewLicenseRepository()
		st.payments = memory.NewPaymentRepository()
		st.investors = memory.NewInvestorRequestRepository()
		st.tickets = memory.NewTicketRepository()
		a.log.Info().Msg("using in-memory store")
	}

	switch cfg.SessionDriver {
	case config.DriverRedis:
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		checks["redis"] = func(ctx context.Context) error { return redisstore.Ping(ctx, client) }
		st.sessions = redisstore.NewSessionStore(client)
		st.idem = redisstore.NewIdempotencyStore(client, 0)
		a.log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis sessions")
	default:
		st.sessions = memory.NewSessionStore()
		st.idem = memory.NewIdempotencyStore()
	}

	return st, nil
}

// Run serves until ctx is cancelled, then drains the server and the
// notification workers.
func (a *App) Run(ctx context.Context) error {
	// workers outlive ctx so Close can drain what is already queued
	a.dispatcher.Start(context.WithoutCancel(ctx))

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server starting")
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		a.log.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		runErr = a.server.Shutdown(shutdownCtx)
	}

	a.dispatcher.Close()
	a.close(context.Background())
	return runErr
}

func (a *App) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("closing backend")
		}
	}
	a.closers = nil
}
