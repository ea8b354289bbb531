package models

import (
	"fmt"
	"strings"
	"time"
)

// User represents a Beatify account.
//
// Users register with a username/email/password and may link exactly one
// Spotify account; spotifyConnected mirrors whether a linkage row exists.
type User struct {
	id               string
	sequence         int
	username         string
	email            string
	passwordHash     string
	spotifyConnected bool
	createdAt        time.Time
	updatedAt        time.Time
	deletedAt        *time.Time
}

// NewUser creates a User with the given sequence, username, email and password hash.
func NewUser(sequence int, username, email, passwordHash string) *User {
	now := time.Now()
	return &User{
		sequence:     sequence,
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (u *User) ID() string { return u.id }

func (u *User) Sequence() int { return u.sequence }

func (u *User) Username() string { return u.username }

func (u *User) Email() string { return u.email }

func (u *User) PasswordHash() string { return u.passwordHash }

func (u *User) SpotifyConnected() bool { return u.spotifyConnected }

func (u *User) CreatedAt() time.Time { return u.createdAt }

func (u *User) UpdatedAt() time.Time { return u.updatedAt }

func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string) { u.id = id }

func (u *User) SetSequence(sequence int) { u.sequence = sequence }

func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }

func (u *User) SetSpotifyConnected(v bool) { u.spotifyConnected = v }

func (u *User) SetCreatedAt(ts time.Time) { u.createdAt = ts }

func (u *User) SetUpdatedAt(ts time.Time) { u.updatedAt = ts }

func (u *User) SetDeletedAt(ts *time.Time) { u.deletedAt = ts }

// Validate checks username, email, and password hash presence.
func (u *User) Validate() error {
	if strings.TrimSpace(u.username) == "" {
		return fmt.Errorf("username is required")
	}
	if !strings.Contains(u.email, "@") {
		return fmt.Errorf("invalid email: %s", u.email)
	}
	if u.passwordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	return nil
}
