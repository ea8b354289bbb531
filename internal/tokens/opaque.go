package tokens

import (
	"fmt"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

// opaqueTokenLength is the number of alphanumeric characters in a minted
// opaque token, giving just under 240 bits of entropy.
const opaqueTokenLength = 40

// OpaqueIssuer mints random identifiers stored on widget rows. Tokens carry
// no information; validation resolves them with a database lookup and always
// reflects the widget's current config. Revocation is deleting the row.
type OpaqueIssuer struct {
	widgets  *repositories.WidgetRepository
	accounts *repositories.SpotifyAccountRepository
}

// NewOpaqueIssuer creates an OpaqueIssuer backed by the given repositories.
func NewOpaqueIssuer(widgets *repositories.WidgetRepository, accounts *repositories.SpotifyAccountRepository) *OpaqueIssuer {
	return &OpaqueIssuer{widgets: widgets, accounts: accounts}
}

// GetOrCreate returns the user's widget token for the platform, minting one
// if none exists. Fails with shared.ErrNotLinked when the user has no linked
// Spotify account; no widget row is created in that case.
func (i *OpaqueIssuer) GetOrCreate(username, platform string) (string, error) {
	account, err := i.accounts.GetByUsername(username)
	if err != nil {
		return "", err
	}

	token, err := shared.GenerateOpaqueToken(opaqueTokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	widget := models.NewWidget(0, username, token, platform)
	widget.SetSpotifyUserID(account.SpotifyUserID())

	created, err := i.widgets.GetOrCreate(widget)
	if err != nil {
		return "", err
	}

	return created.WidgetToken(), nil
}

// Validate resolves the token to its owning widget. Unknown tokens map to
// shared.ErrInvalidToken; opaque tokens stay valid until the widget row is
// deleted.
func (i *OpaqueIssuer) Validate(token string) (Payload, error) {
	widget, err := i.widgets.GetByToken(token)
	if err != nil {
		return Payload{}, err
	}

	config, err := widget.Config()
	if err != nil {
		return Payload{}, fmt.Errorf("stored config is corrupt: %v: %w", err, shared.ErrInvalidToken)
	}

	return Payload{
		Username: widget.Username(),
		Config:   config,
		IssuedAt: widget.CreatedAt(),
	}, nil
}

// Config is a projection over Validate.
func (i *OpaqueIssuer) Config(token string) (map[string]any, error) {
	payload, err := i.Validate(token)
	if err != nil {
		return nil, err
	}
	return payload.Config, nil
}

// Username is a projection over Validate.
func (i *OpaqueIssuer) Username(token string) (string, error) {
	payload, err := i.Validate(token)
	if err != nil {
		return "", err
	}
	return payload.Username, nil
}
