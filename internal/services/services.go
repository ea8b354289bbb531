package services

import (
	"context"

	"golang.org/x/oauth2"
)

// Service defines the operations the HTTP layer needs from a music provider.
// SpotifyService is the only implementation; the interface exists so handler
// tests can substitute a mock.
type Service interface {
	// BuildAuthorizationURL returns the provider's consent page URL for the
	// given CSRF state. Fails when no client ID is configured.
	BuildAuthorizationURL(state string) (string, error)

	// ExchangeCode trades an authorization code for a token pair.
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)

	// SaveUserInfo fetches the provider profile and persists the linkage row
	// for the given account username.
	SaveUserInfo(ctx context.Context, username string, token *oauth2.Token) (*SpotifyUser, error)

	// GetValidAccessToken returns a usable access token for the user,
	// refreshing if the cached one is missing or near expiry.
	GetValidAccessToken(ctx context.Context, username string) (string, error)

	// NowPlaying reports the user's currently playing track, if any.
	NowPlaying(ctx context.Context, username string) (*NowPlayingInfo, error)

	// Unlink removes the user's linkage row and cached tokens.
	Unlink(username string) error

	// Name returns the provider name (e.g., "Spotify")
	Name() string
}

// NowPlayingInfo is the provider-agnostic now-playing summary rendered by
// widgets.
type NowPlayingInfo struct {
	IsPlaying  bool     `json:"is_playing"`
	Track      string   `json:"track,omitempty"`
	Artists    []string `json:"artists,omitempty"`
	Album      string   `json:"album,omitempty"`
	AlbumArt   string   `json:"album_art,omitempty"`
	TrackURL   string   `json:"track_url,omitempty"`
	ProgressMS int      `json:"progress_ms,omitempty"`
	DurationMS int      `json:"duration_ms,omitempty"`
}
