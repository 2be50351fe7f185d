// Critique - Title Catalog Reviews and Ratings
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/critique

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tomtom215/critique/internal/accounts"
	"github.com/tomtom215/critique/internal/api"
	"github.com/tomtom215/critique/internal/auth"
	"github.com/tomtom215/critique/internal/authz"
	"github.com/tomtom215/critique/internal/catalog"
	"github.com/tomtom215/critique/internal/config"
	"github.com/tomtom215/critique/internal/database"
	"github.com/tomtom215/critique/internal/logging"
	"github.com/tomtom215/critique/internal/mail"
	"github.com/tomtom215/critique/internal/rating"
	"github.com/tomtom215/critique/internal/reviews"
	"github.com/tomtom215/critique/internal/supervisor"
	"github.com/tomtom215/critique/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("mail_backend", cfg.Mail.Backend).
		Msg("Starting Critique")

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	issuer, err := auth.NewIssuer(&cfg.Security)
	if err != nil {
		return fmt.Errorf("credential issuer: %w", err)
	}
	policy, err := authz.NewEngine(cfg.Security.Casbin)
	if err != nil {
		return fmt.Errorf("access policy: %w", err)
	}
	defer policy.Close()

	mailer, err := mail.New(cfg.Mail)
	if err != nil {
		return fmt.Errorf("mail dispatcher: %w", err)
	}
	agg := rating.NewAggregator(db, cfg.Rating)

	handler := api.NewHandler(
		accounts.NewService(db, issuer, mailer, policy, agg, cfg.Mail.Subject),
		catalog.NewService(db, policy),
		reviews.NewService(db, agg, policy),
		db,
		cfg.API,
	)
	authMw := auth.NewMiddleware(issuer.Tokens(), db, api.WriteServiceError)
	router := api.NewRouter(handler, authMw, api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security)))

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if cfg.Rating.ReconcileInterval > 0 {
		tree.AddMaintenanceService(services.NewReconcileService(db, agg, cfg.Rating.ReconcileInterval))
	} else {
		logging.Info().Msg("Rating reconcile sweep disabled (RATING_RECONCILE_EVERY=0)")
	}

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	return nil
}
