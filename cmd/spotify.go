package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/beatify/internal/formatter"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/server"
	"github.com/desertthunder/beatify/internal/services"
	"github.com/desertthunder/beatify/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SpotifyLink performs the OAuth2 authorization flow from the terminal and
// persists the linkage for the given account.
//
// Starts a local HTTP server, opens the browser for user consent, exchanges
// the auth code, and saves the refresh token against the user row.
func (r *Runner) SpotifyLink(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")

	config := r.loadConfig(cmd)

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	accounts := repositories.NewSpotifyAccountRepository(db)

	if _, err := users.GetByUsername(username); err != nil {
		return fmt.Errorf("unknown user %s, create one with 'beatify users create': %w", username, err)
	}

	spotify := services.NewSpotifyService(config.Credentials.Spotify, accounts, users)

	token, err := r.doOAuth(config, spotify)
	if err != nil {
		return err
	}

	profile, err := spotify.SaveUserInfo(ctx, username, token)
	if err != nil {
		return fmt.Errorf("failed to save linkage: %w", err)
	}

	r.writePlainln("✓ Spotify linked")
	r.writePlain("Connected %s as %s\n\n", username, profile.DisplayName)
	r.writePlain("Issue a widget token with: beatify widgets issue --username %s\n", username)

	return nil
}

// SpotifyUnlink removes a user's Spotify linkage and revokes dependent widgets
// on the next maintenance sweep.
func (r *Runner) SpotifyUnlink(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	spotify := services.NewSpotifyService(config.Credentials.Spotify,
		repositories.NewSpotifyAccountRepository(db),
		repositories.NewUserRepository(db))

	if err := spotify.Unlink(username); err != nil {
		if errors.Is(err, shared.ErrNotLinked) {
			return fmt.Errorf("%s has no linked Spotify account: %w", username, err)
		}
		return fmt.Errorf("failed to unlink: %w", err)
	}

	r.writePlain("✓ Spotify unlinked for %s\n", username)
	r.writePlain("Existing widget tokens stop resolving on the next sweep ('beatify db sweep').\n")

	return nil
}

// SpotifyNowPlaying prints the user's currently playing track.
func (r *Runner) SpotifyNowPlaying(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	spotify := services.NewSpotifyService(config.Credentials.Spotify,
		repositories.NewSpotifyAccountRepository(db),
		repositories.NewUserRepository(db))

	info, err := spotify.NowPlaying(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotLinked) || errors.Is(err, shared.ErrNoRefreshToken) {
			return fmt.Errorf("%s has no usable Spotify linkage, run 'beatify spotify link --username %s': %w", username, username, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(info, pretty)
	}

	return r.writePlain("%s", formatter.FormatNowPlaying(info))
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config, svc services.Service) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL, err := svc.BuildAuthorizationURL(state)
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization URL: %w", err)
	}
	oauthHandler := server.NewOAuthHandler(svc, state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	httpServer := &http.Server{
		Addr:    config.Server.Addr(),
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
