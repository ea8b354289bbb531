package tokens

import (
	"fmt"
	"time"

	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

// Payload is the validated identity a widget token resolves to.
type Payload struct {
	Username  string         `json:"username"`
	Config    map[string]any `json:"config"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
}

// Expired reports whether the payload's lifetime has passed.
// A zero ExpiresAt means the token does not expire.
func (p Payload) Expired() bool {
	return !p.ExpiresAt.IsZero() && time.Now().After(p.ExpiresAt)
}

// Issuer mints and validates widget access tokens.
//
// GetOrCreate is idempotent per (username, platform): repeated calls return
// the same token until it is revoked or expires. Validate returns
// shared.ErrInvalidToken for unknown, malformed, or expired tokens and
// never distinguishes the failure reasons to callers beyond that sentinel.
type Issuer interface {
	// GetOrCreate returns the user's widget token for the platform,
	// minting one if none exists. Fails with shared.ErrNotLinked when the
	// user has no linked Spotify account.
	GetOrCreate(username, platform string) (string, error)

	// Validate resolves a token to its payload.
	Validate(token string) (Payload, error)

	// Config returns the widget configuration a token resolves to.
	Config(token string) (map[string]any, error)

	// Username returns the owning username a token resolves to.
	Username(token string) (string, error)
}

// NewIssuer builds the issuer selected by config.Widget.TokenMode.
func NewIssuer(config *shared.Config, widgets *repositories.WidgetRepository, accounts *repositories.SpotifyAccountRepository) (Issuer, error) {
	switch config.Widget.TokenMode {
	case "opaque", "":
		return NewOpaqueIssuer(widgets, accounts), nil
	case "signed":
		return NewSignedIssuer(config.Widget.SigningSecret, config.Widget.ValidityDays, widgets, accounts)
	default:
		return nil, fmt.Errorf("unknown token mode %q: %w", config.Widget.TokenMode, shared.ErrInvalidArgument)
	}
}
