package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/shared"
)

// SpotifyAccountRepository persists [models.SpotifyAccount] linkage rows.
//
// Each user has at most one row, keyed by username. Upsert replaces an
// existing linkage when the user re-authorizes with Spotify.
type SpotifyAccountRepository struct {
	db *sql.DB
}

// NewSpotifyAccountRepository creates a new [SpotifyAccountRepository] with the given database connection
func NewSpotifyAccountRepository(db *sql.DB) *SpotifyAccountRepository {
	return &SpotifyAccountRepository{db: db}
}

// Upsert inserts or replaces the linkage row for the account's username.
func (r *SpotifyAccountRepository) Upsert(account *models.SpotifyAccount) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if account.ID() == "" {
		account.SetID(shared.GenerateID())
	}
	account.SetUpdatedAt(time.Now())

	query := `
		INSERT INTO spotify_accounts (id, username, spotify_user_id, client_id, client_secret, refresh_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			spotify_user_id = excluded.spotify_user_id,
			client_id = excluded.client_id,
			client_secret = excluded.client_secret,
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, account.ID(), account.Username(), account.SpotifyUserID(),
		account.ClientID(), account.ClientSecret(), account.RefreshToken(),
		account.CreatedAt(), account.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert spotify account: %w", err)
	}

	return nil
}

// GetByUsername retrieves the linkage row for a user.
// Returns [shared.ErrNotLinked] when the user has no linked account.
func (r *SpotifyAccountRepository) GetByUsername(username string) (*models.SpotifyAccount, error) {
	query := `
		SELECT id, username, spotify_user_id, client_id, client_secret, refresh_token, created_at, updated_at
		FROM spotify_accounts
		WHERE username = ?
	`

	var (
		id            string
		name          string
		spotifyUserID string
		clientID      string
		clientSecret  string
		refreshToken  string
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := r.db.QueryRow(query, username).Scan(&id, &name, &spotifyUserID, &clientID,
		&clientSecret, &refreshToken, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query spotify account: %w", err)
	}

	account := models.NewSpotifyAccount(name, spotifyUserID, clientID, clientSecret, refreshToken)
	account.SetID(id)
	account.SetCreatedAt(createdAt)
	account.SetUpdatedAt(updatedAt)

	return account, nil
}

// UpdateRefreshToken persists a rotated refresh token for the user.
func (r *SpotifyAccountRepository) UpdateRefreshToken(username, refreshToken string) error {
	query := `
		UPDATE spotify_accounts
		SET refresh_token = ?, updated_at = ?
		WHERE username = ?
	`

	result, err := r.db.Exec(query, refreshToken, time.Now(), username)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotLinked
	}

	return nil
}

// Delete removes the linkage row for a user (unlink).
func (r *SpotifyAccountRepository) Delete(username string) error {
	result, err := r.db.Exec("DELETE FROM spotify_accounts WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete spotify account: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrNotLinked
	}

	return nil
}
