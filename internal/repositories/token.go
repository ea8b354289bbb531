package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/shared"
)

// AuthTokenRepository persists [models.AuthToken] login sessions.
//
// Tokens are never updated in place. Logout and re-login invalidate tokens by
// stamping expired_at; DeleteExpired reclaims rows whose lifetime has passed.
type AuthTokenRepository struct {
	db *sql.DB
}

// NewAuthTokenRepository creates a new [AuthTokenRepository] with the given database connection
func NewAuthTokenRepository(db *sql.DB) *AuthTokenRepository {
	return &AuthTokenRepository{db: db}
}

// Create inserts a new auth token with a generated ID
func (r *AuthTokenRepository) Create(token *models.AuthToken) error {
	id := shared.GenerateID()
	token.SetID(id)

	if err := token.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO auth_tokens (id, user_id, token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, id, token.UserID(), token.Token(), token.CreatedAt(), token.ExpiresAt())
	if err != nil {
		return fmt.Errorf("failed to insert auth token: %w", err)
	}

	return nil
}

// GetByToken retrieves an auth token by its value.
func (r *AuthTokenRepository) GetByToken(value string) (*models.AuthToken, error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at, expired_at
		FROM auth_tokens
		WHERE token = ?
	`

	var (
		id        string
		userID    string
		token     string
		createdAt time.Time
		expiresAt time.Time
		expiredAt sql.NullTime
	)

	err := r.db.QueryRow(query, value).Scan(&id, &userID, &token, &createdAt, &expiresAt, &expiredAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query auth token: %w", err)
	}

	authToken := models.NewAuthToken(userID, token, 0)
	authToken.SetID(id)
	authToken.SetCreatedAt(createdAt)
	authToken.SetExpiresAt(expiresAt)
	if expiredAt.Valid {
		authToken.SetExpiredAt(&expiredAt.Time)
	}

	return authToken, nil
}

// ExpireActive stamps expired_at on every active token for the given user.
// Returns the number of tokens invalidated.
func (r *AuthTokenRepository) ExpireActive(userID string) (int, error) {
	query := `
		UPDATE auth_tokens
		SET expired_at = ?
		WHERE user_id = ? AND expired_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to expire auth tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// Expire stamps expired_at on a single token by value (logout).
func (r *AuthTokenRepository) Expire(value string) error {
	query := `
		UPDATE auth_tokens
		SET expired_at = ?
		WHERE token = ? AND expired_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), value)
	if err != nil {
		return fmt.Errorf("failed to expire auth token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// DeleteExpired removes tokens whose lifetime has passed or that have been
// stamped. Returns the number of rows removed.
func (r *AuthTokenRepository) DeleteExpired() (int, error) {
	query := `
		DELETE FROM auth_tokens
		WHERE expired_at IS NOT NULL OR expires_at < ?
	`

	result, err := r.db.Exec(query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}
