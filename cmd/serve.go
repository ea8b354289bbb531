package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/beatify/internal/auth"
	"github.com/desertthunder/beatify/internal/metrics"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/server"
	"github.com/desertthunder/beatify/internal/services"
	"github.com/desertthunder/beatify/internal/shared"
	"github.com/desertthunder/beatify/internal/tasks"
	"github.com/desertthunder/beatify/internal/tokens"
	"github.com/urfave/cli/v3"
)

const sweepInterval = time.Hour

// Serve wires the repositories, services, and token issuer into the HTTP
// server and runs it until interrupted. A background janitor sweeps expired
// sessions and orphaned widgets while the server runs.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	sessionTokens := repositories.NewAuthTokenRepository(db)
	accounts := repositories.NewSpotifyAccountRepository(db)
	widgets := repositories.NewWidgetRepository(db)

	authService := auth.NewService(users, sessionTokens, config.Auth.SessionTTLHours)
	spotify := services.NewSpotifyService(config.Credentials.Spotify, accounts, users)

	issuer, err := tokens.NewIssuer(config, widgets, accounts)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	srv := server.New(config, r.logger, authService, spotify, issuer, widgets, metrics.New())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	janitor := tasks.NewJanitor(tasks.NewMaintenanceEngine(sessionTokens, widgets), shared.WithLogger(r.logger, "component", "janitor"), sweepInterval)
	go janitor.Run(ctx)

	return srv.Start(ctx)
}
