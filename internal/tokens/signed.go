package tokens

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

// SignedIssuer mints HMAC-signed JWTs (HS256) that carry the username and a
// snapshot of the widget config taken at issuance. Validation verifies the
// signature and expiry without touching the database.
//
// The minted token is also stored on the widget row so repeated GetOrCreate
// calls return the same token instead of re-signing with a fresh iat.
type SignedIssuer struct {
	secret   []byte
	validity time.Duration
	widgets  *repositories.WidgetRepository
	accounts *repositories.SpotifyAccountRepository
}

// NewSignedIssuer creates a SignedIssuer. validityDays of 0 mints
// non-expiring tokens.
func NewSignedIssuer(secret string, validityDays int, widgets *repositories.WidgetRepository, accounts *repositories.SpotifyAccountRepository) (*SignedIssuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required: %w", shared.ErrMissingCredentials)
	}
	return &SignedIssuer{
		secret:   []byte(secret),
		validity: time.Duration(validityDays) * 24 * time.Hour,
		widgets:  widgets,
		accounts: accounts,
	}, nil
}

type widgetClaims struct {
	Config   map[string]any `json:"cfg"`
	Platform string         `json:"platform"`
	jwt.RegisteredClaims
}

// GetOrCreate returns the user's signed token for the platform, minting and
// storing one if none exists. Fails with shared.ErrNotLinked when the user
// has no linked Spotify account.
func (i *SignedIssuer) GetOrCreate(username, platform string) (string, error) {
	account, err := i.accounts.GetByUsername(username)
	if err != nil {
		return "", err
	}

	existing, err := i.widgets.GetByUsernamePlatform(username, platform)
	if err == nil {
		// Reuse the stored token unless it has expired.
		if _, verr := i.Validate(existing.WidgetToken()); verr == nil {
			return existing.WidgetToken(), nil
		}
	}

	token, err := i.mint(username, platform, map[string]any{})
	if err != nil {
		return "", err
	}

	if existing != nil {
		if err := i.widgets.Delete(existing.ID()); err != nil {
			return "", fmt.Errorf("failed to replace expired widget: %w", err)
		}
	}

	widget := models.NewWidget(0, username, token, platform)
	widget.SetSpotifyUserID(account.SpotifyUserID())
	created, err := i.widgets.GetOrCreate(widget)
	if err != nil {
		return "", err
	}

	return created.WidgetToken(), nil
}

func (i *SignedIssuer) mint(username, platform string, config map[string]any) (string, error) {
	now := time.Now()
	claims := widgetClaims{
		Config:   config,
		Platform: platform,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  username,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       shared.GenerateID(),
		},
	}
	if i.validity > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.validity))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

// Validate verifies the token's signature and expiry and returns the embedded
// payload. Any parse, signature, or expiry failure maps to
// shared.ErrInvalidToken.
func (i *SignedIssuer) Validate(tokenString string) (Payload, error) {
	var claims widgetClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Payload{}, shared.ErrInvalidToken
	}
	if claims.Subject == "" {
		return Payload{}, shared.ErrInvalidToken
	}

	payload := Payload{
		Username: claims.Subject,
		Config:   claims.Config,
	}
	if payload.Config == nil {
		payload.Config = map[string]any{}
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}

	return payload, nil
}

// Config is a projection over Validate.
func (i *SignedIssuer) Config(token string) (map[string]any, error) {
	payload, err := i.Validate(token)
	if err != nil {
		return nil, err
	}
	return payload.Config, nil
}

// Username is a projection over Validate.
func (i *SignedIssuer) Username(token string) (string, error) {
	payload, err := i.Validate(token)
	if err != nil {
		return "", err
	}
	return payload.Username, nil
}
