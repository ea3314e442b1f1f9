// Package main TradeLoom Portal API
//
// @title           TradeLoom Portal API
// @version         1.0
// @description     License sales, approval and investor access for TradeLoom.
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token from /v1/auth/login.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradeloom/portal/internal/app"
	"github.com/tradeloom/portal/internal/infrastructure/config"
	"github.com/tradeloom/portal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "tradeloom-portal",
	})
	log.Info().
		Str("env", cfg.Env).
		Str("store", cfg.StoreDriver).
		Str("sessions", cfg.SessionDriver).
		Msg("starting portal")

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise portal")
	}

	if err := a.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("portal stopped with error")
	}
	log.Info().Msg("portal stopped gracefully")
}
