package models

import (
	"fmt"
	"time"
)

// AuthToken is a login session token. A token is active while expired_at is
// unset and expires_at is in the future; logging in again stamps the previous
// active tokens before inserting a new one.
type AuthToken struct {
	id        string
	userID    string
	token     string
	createdAt time.Time
	expiresAt time.Time
	expiredAt *time.Time
}

// NewAuthToken creates an AuthToken for the given user with the given lifetime.
func NewAuthToken(userID, token string, ttl time.Duration) *AuthToken {
	now := time.Now()
	return &AuthToken{
		userID:    userID,
		token:     token,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
}

func (t *AuthToken) ID() string { return t.id }

func (t *AuthToken) UserID() string { return t.userID }

func (t *AuthToken) Token() string { return t.token }

func (t *AuthToken) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt satisfies Model; auth tokens are never updated in place.
func (t *AuthToken) UpdatedAt() time.Time { return t.createdAt }

func (t *AuthToken) ExpiresAt() time.Time { return t.expiresAt }

func (t *AuthToken) ExpiredAt() *time.Time { return t.expiredAt }

func (t *AuthToken) SetID(id string) { t.id = id }

func (t *AuthToken) SetCreatedAt(ts time.Time) { t.createdAt = ts }

func (t *AuthToken) SetExpiresAt(ts time.Time) { t.expiresAt = ts }

func (t *AuthToken) SetExpiredAt(ts *time.Time) { t.expiredAt = ts }

// Active reports whether the token can still authenticate requests.
func (t *AuthToken) Active() bool {
	return t.expiredAt == nil && time.Now().Before(t.expiresAt)
}

// Validate checks user linkage and token presence.
func (t *AuthToken) Validate() error {
	if t.userID == "" {
		return fmt.Errorf("user id is required")
	}
	if t.token == "" {
		return fmt.Errorf("token value is required")
	}
	if t.expiresAt.IsZero() {
		return fmt.Errorf("expiry is required")
	}
	return nil
}
