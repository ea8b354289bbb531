package models

import (
	"fmt"
	"time"
)

// SpotifyAccount links a Beatify user to a Spotify account. Each user has at
// most one row, keyed by username. The row carries the client credentials the
// linkage was created with so refreshes keep working if the server defaults
// change, along with the current (rotating) refresh token.
type SpotifyAccount struct {
	id            string
	username      string
	spotifyUserID string
	clientID      string
	clientSecret  string
	refreshToken  string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSpotifyAccount creates a linkage row for the given username.
func NewSpotifyAccount(username, spotifyUserID, clientID, clientSecret, refreshToken string) *SpotifyAccount {
	now := time.Now()
	return &SpotifyAccount{
		username:      username,
		spotifyUserID: spotifyUserID,
		clientID:      clientID,
		clientSecret:  clientSecret,
		refreshToken:  refreshToken,
		createdAt:     now,
		updatedAt:     now,
	}
}

func (a *SpotifyAccount) ID() string { return a.id }

func (a *SpotifyAccount) Username() string { return a.username }

func (a *SpotifyAccount) SpotifyUserID() string { return a.spotifyUserID }

func (a *SpotifyAccount) ClientID() string { return a.clientID }

func (a *SpotifyAccount) ClientSecret() string { return a.clientSecret }

func (a *SpotifyAccount) RefreshToken() string { return a.refreshToken }

func (a *SpotifyAccount) CreatedAt() time.Time { return a.createdAt }

func (a *SpotifyAccount) UpdatedAt() time.Time { return a.updatedAt }

func (a *SpotifyAccount) SetID(id string) { a.id = id }

func (a *SpotifyAccount) SetSpotifyUserID(id string) { a.spotifyUserID = id }

func (a *SpotifyAccount) SetRefreshToken(token string) { a.refreshToken = token }

func (a *SpotifyAccount) SetCreatedAt(ts time.Time) { a.createdAt = ts }

func (a *SpotifyAccount) SetUpdatedAt(ts time.Time) { a.updatedAt = ts }

// Validate checks the linkage has an owner and a refresh token.
func (a *SpotifyAccount) Validate() error {
	if a.username == "" {
		return fmt.Errorf("username is required")
	}
	if a.refreshToken == "" {
		return fmt.Errorf("refresh token is required")
	}
	return nil
}
