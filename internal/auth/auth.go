// Package auth implements account registration and login session management.
//
// Passwords are stored as bcrypt hashes. Logging in expires any previous
// active sessions for the user before minting a new auth token, so at most
// one session is active per account.
package auth

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

const minPasswordLength = 8

// Service handles registration, login, logout, and session validation.
type Service struct {
	users      *repositories.UserRepository
	tokens     *repositories.AuthTokenRepository
	sessionTTL time.Duration
}

// NewService creates an auth Service. sessionTTLHours of 0 defaults to 24h.
func NewService(users *repositories.UserRepository, tokens *repositories.AuthTokenRepository, sessionTTLHours int) *Service {
	if sessionTTLHours <= 0 {
		sessionTTLHours = 24
	}
	return &Service{
		users:      users,
		tokens:     tokens,
		sessionTTL: time.Duration(sessionTTLHours) * time.Hour,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, shared.ErrInvalidArgument)
	}

	if _, err := s.users.GetByUsername(username); err == nil {
		return nil, fmt.Errorf("username %s is taken: %w", username, shared.ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(0, username, email, string(hash))
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login verifies credentials and mints a new session token, expiring any
// previous active sessions for the user. Returns shared.ErrNotAuthenticated for
// unknown users and wrong passwords alike.
func (s *Service) Login(username, password string) (*models.AuthToken, error) {
	user, err := s.users.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, shared.ErrNotAuthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(password)); err != nil {
		return nil, shared.ErrNotAuthenticated
	}

	if _, err := s.tokens.ExpireActive(user.ID()); err != nil {
		return nil, err
	}

	value, err := shared.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	token := models.NewAuthToken(user.ID(), value, s.sessionTTL)
	if err := s.tokens.Create(token); err != nil {
		return nil, err
	}

	return token, nil
}

// Logout expires the session token. Unknown tokens are not an error; logout
// is idempotent from the client's perspective.
func (s *Service) Logout(tokenValue string) error {
	if err := s.tokens.Expire(tokenValue); err != nil && err != shared.ErrNotFound {
		return err
	}
	return nil
}

// ValidateToken resolves a session token to its user. Expired, stamped, and
// unknown tokens all map to shared.ErrNotAuthenticated.
func (s *Service) ValidateToken(tokenValue string) (*models.User, error) {
	token, err := s.tokens.GetByToken(tokenValue)
	if err != nil {
		return nil, shared.ErrNotAuthenticated
	}
	if !token.Active() {
		return nil, shared.ErrNotAuthenticated
	}

	user, err := s.users.Get(token.UserID())
	if err != nil {
		return nil, shared.ErrNotAuthenticated
	}

	return user, nil
}
