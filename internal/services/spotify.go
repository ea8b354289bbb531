// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// expiryBuffer is subtracted from cached token lifetimes so a token
	// handed to a caller is not about to die mid-request.
	expiryBuffer = 5 * time.Minute

	requestTimeout = 10 * time.Second
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	Explicit     bool            `json:"explicit"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyCurrentlyPlaying represents the /me/player/currently-playing response.
type SpotifyCurrentlyPlaying struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMS int           `json:"progress_ms"`
	Item       *SpotifyTrack `json:"item"`
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

func (c cachedToken) usable() bool {
	return c.accessToken != "" && time.Now().Add(expiryBuffer).Before(c.expiresAt)
}

// SpotifyService implements [Service] for the Spotify Web API.
// Uses [oauth2] for the authorization code flow and keeps short-lived access
// tokens in an in-memory per-user cache; refresh tokens live on the linkage
// rows in the database.
type SpotifyService struct {
	defaults   shared.SpotifyConfig
	accounts   *repositories.SpotifyAccountRepository
	users      *repositories.UserRepository
	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string]cachedToken
}

// NewSpotifyService creates a Spotify service with the given default
// credentials and repositories.
func NewSpotifyService(defaults shared.SpotifyConfig, accounts *repositories.SpotifyAccountRepository, users *repositories.UserRepository) *SpotifyService {
	return &SpotifyService{
		defaults:   defaults,
		accounts:   accounts,
		users:      users,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      map[string]cachedToken{},
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// oauthConfig builds an oauth2 config from the default credentials.
func (s *SpotifyService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.defaults.ClientID,
		ClientSecret: s.defaults.ClientSecret,
		RedirectURL:  s.defaults.RedirectURI,
		Scopes:       s.defaults.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// accountConfig builds an oauth2 config from the credentials stored on the
// linkage row, falling back to the defaults for missing fields.
func (s *SpotifyService) accountConfig(account *models.SpotifyAccount) *oauth2.Config {
	config := s.oauthConfig()
	if account.ClientID() != "" {
		config.ClientID = account.ClientID()
	}
	if account.ClientSecret() != "" {
		config.ClientSecret = account.ClientSecret()
	}
	return config
}

// withHTTPClient routes oauth2 transport through the service's client so the
// request timeout applies to token endpoint calls too.
func (s *SpotifyService) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// BuildAuthorizationURL returns the Spotify consent page URL for the given
// CSRF state, failing with shared.ErrMissingCredentials when no client ID is
// configured. show_dialog forces the consent screen so users switching
// Spotify accounts are not silently re-linked to the previous one.
func (s *SpotifyService) BuildAuthorizationURL(state string) (string, error) {
	if s.defaults.ClientID == "" {
		return "", shared.ErrMissingCredentials
	}
	return s.oauthConfig().AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true")), nil
}

// ExchangeCode trades an authorization code for a token pair.
func (s *SpotifyService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if s.defaults.ClientID == "" || s.defaults.ClientSecret == "" {
		return nil, shared.ErrMissingCredentials
	}

	token, err := s.oauthConfig().Exchange(s.withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return token, nil
}

// SaveUserInfo fetches the Spotify profile for the token, upserts the user's
// linkage row, caches the access token, and flips the user's linked flag.
func (s *SpotifyService) SaveUserInfo(ctx context.Context, username string, token *oauth2.Token) (*SpotifyUser, error) {
	if token.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	profile, err := s.Profile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	account := models.NewSpotifyAccount(username, profile.ID, s.defaults.ClientID, s.defaults.ClientSecret, token.RefreshToken)
	if err := s.accounts.Upsert(account); err != nil {
		return nil, err
	}
	if err := s.users.SetSpotifyConnected(username, true); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[username] = cachedToken{accessToken: token.AccessToken, expiresAt: token.Expiry}
	s.mu.Unlock()

	return profile, nil
}

// GetValidAccessToken returns a usable access token for the user, refreshing
// when the cached one is missing or expires within the buffer window.
func (s *SpotifyService) GetValidAccessToken(ctx context.Context, username string) (string, error) {
	s.mu.RLock()
	cached := s.cache[username]
	s.mu.RUnlock()

	if cached.usable() {
		return cached.accessToken, nil
	}

	return s.RefreshAccessToken(ctx, username)
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token. Spotify may rotate the refresh token; the rotated value is persisted
// before the new access token is returned. On rejection the cache entry is
// dropped so later calls retry the refresh rather than reuse a dead token.
func (s *SpotifyService) RefreshAccessToken(ctx context.Context, username string) (string, error) {
	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		return "", err
	}
	if account.RefreshToken() == "" {
		return "", shared.ErrNoRefreshToken
	}

	config := s.accountConfig(account)
	if config.ClientID == "" || config.ClientSecret == "" {
		return "", shared.ErrMissingCredentials
	}

	source := config.TokenSource(s.withHTTPClient(ctx), &oauth2.Token{RefreshToken: account.RefreshToken()})
	token, err := source.Token()
	if err != nil {
		s.mu.Lock()
		delete(s.cache, username)
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if token.RefreshToken != "" && token.RefreshToken != account.RefreshToken() {
		if err := s.accounts.UpdateRefreshToken(username, token.RefreshToken); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	s.cache[username] = cachedToken{accessToken: token.AccessToken, expiresAt: token.Expiry}
	s.mu.Unlock()

	return token.AccessToken, nil
}

// Unlink removes the user's linkage row, cached tokens, and linked flag.
func (s *SpotifyService) Unlink(username string) error {
	if err := s.accounts.Delete(username); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.cache, username)
	s.mu.Unlock()

	return s.users.SetSpotifyConnected(username, false)
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, accessToken string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, spotifyBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return shared.ErrTokenExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Profile retrieves the profile for the given access token.
func (s *SpotifyService) Profile(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "GET", "/me", accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentlyPlaying retrieves the raw currently-playing state for the user.
// A 204 from Spotify (nothing playing) yields a zero-value response.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context, username string) (*SpotifyCurrentlyPlaying, error) {
	accessToken, err := s.GetValidAccessToken(ctx, username)
	if err != nil {
		return nil, err
	}

	var playing SpotifyCurrentlyPlaying
	if err := s.doRequest(ctx, "GET", "/me/player/currently-playing", accessToken, &playing); err != nil {
		return nil, err
	}

	return &playing, nil
}

// NowPlaying reports the user's currently playing track, flattened for
// widget rendering.
func (s *SpotifyService) NowPlaying(ctx context.Context, username string) (*NowPlayingInfo, error) {
	playing, err := s.CurrentlyPlaying(ctx, username)
	if err != nil {
		return nil, err
	}

	info := &NowPlayingInfo{IsPlaying: playing.IsPlaying}
	if playing.Item == nil {
		return info, nil
	}

	info.Track = playing.Item.Name
	info.Album = playing.Item.Album.Name
	info.TrackURL = playing.Item.ExternalURLs.Spotify
	info.ProgressMS = playing.ProgressMS
	info.DurationMS = playing.Item.DurationMS
	for _, artist := range playing.Item.Artists {
		info.Artists = append(info.Artists, artist.Name)
	}
	if len(playing.Item.Album.Images) > 0 {
		info.AlbumArt = playing.Item.Album.Images[0].URL
	}

	return info, nil
}
