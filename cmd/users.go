package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/beatify/internal/auth"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/urfave/cli/v3"
)

// UsersCreate registers a new account with a hashed password.
func (r *Runner) UsersCreate(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	email := cmd.String("email")
	password := cmd.String("password")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(
		repositories.NewUserRepository(db),
		repositories.NewAuthTokenRepository(db),
		config.Auth.SessionTTLHours)

	user, err := service.Register(username, email, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.writePlain("✓ User #%d created: %s\n", user.Sequence(), user.Username())
	r.writePlain("Link a Spotify account with: beatify spotify link --username %s\n", user.Username())

	return nil
}

// UsersList prints all accounts.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := repositories.NewUserRepository(db).List(map[string]any{})
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if useJSON {
		summaries := make([]map[string]any, 0, len(users))
		for _, user := range users {
			summaries = append(summaries, map[string]any{
				"sequence":          user.Sequence(),
				"username":          user.Username(),
				"email":             user.Email(),
				"spotify_connected": user.SpotifyConnected(),
				"created_at":        user.CreatedAt(),
			})
		}
		return r.writeJSON(summaries, pretty)
	}

	r.writePlain("Found %d users:\n\n", len(users))
	for _, user := range users {
		r.writePlain("%d. %s\n", user.Sequence(), user.Username())
		r.writePlain("   Email: %s\n", user.Email())
		if user.SpotifyConnected() {
			r.writePlain("   Spotify: linked\n")
		} else {
			r.writePlain("   Spotify: not linked\n")
		}
		r.writePlain("\n")
	}

	return nil
}
