package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/shared"
)

// WidgetRepository persists [models.Widget] rows.
//
// At most one widget exists per (username, platform); GetOrCreate relies on
// the unique index and ON CONFLICT DO NOTHING so concurrent issuance for the
// same user converges on a single row.
type WidgetRepository struct {
	db *sql.DB
}

// NewWidgetRepository creates a new [WidgetRepository] with the given database connection
func NewWidgetRepository(db *sql.DB) *WidgetRepository {
	return &WidgetRepository{db: db}
}

// Create inserts a new widget with generated ID and sequence.
// Fails if the user already has a widget for the platform.
func (r *WidgetRepository) Create(widget *models.Widget) error {
	sequence, err := NextSequence(r.db, "widgets")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	widget.SetID(shared.GenerateID())
	widget.SetSequence(sequence)

	if err := widget.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO widgets (id, sequence, username, widget_token, widget_name, widget_type, config_data, spotify_user_id, platform, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, widget.ID(), sequence, widget.Username(), widget.WidgetToken(),
		widget.WidgetName(), widget.WidgetType(), widget.ConfigData(), widget.SpotifyUserID(),
		widget.Platform(), widget.CreatedAt(), widget.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert widget: %w", err)
	}

	return nil
}

// GetOrCreate returns the user's widget for the platform, inserting the given
// candidate if none exists. The insert uses ON CONFLICT DO NOTHING, then the
// row is re-read, so two concurrent callers both receive the surviving row.
func (r *WidgetRepository) GetOrCreate(widget *models.Widget) (*models.Widget, error) {
	sequence, err := NextSequence(r.db, "widgets")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	widget.SetID(shared.GenerateID())
	widget.SetSequence(sequence)

	if err := widget.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO widgets (id, sequence, username, widget_token, widget_name, widget_type, config_data, spotify_user_id, platform, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username, platform) DO NOTHING
	`

	_, err = r.db.Exec(query, widget.ID(), sequence, widget.Username(), widget.WidgetToken(),
		widget.WidgetName(), widget.WidgetType(), widget.ConfigData(), widget.SpotifyUserID(),
		widget.Platform(), widget.CreatedAt(), widget.UpdatedAt())
	if err != nil {
		return nil, fmt.Errorf("failed to insert widget: %w", err)
	}

	return r.GetByUsernamePlatform(widget.Username(), widget.Platform())
}

// Get retrieves a widget by ID
func (r *WidgetRepository) Get(id string) (*models.Widget, error) {
	return r.getWhere("id = ?", id)
}

// GetByToken retrieves a widget by its opaque widget token.
// Returns [shared.ErrInvalidToken] when no widget carries the token.
func (r *WidgetRepository) GetByToken(token string) (*models.Widget, error) {
	widget, err := r.getWhere("widget_token = ?", token)
	if err == shared.ErrNotFound {
		return nil, shared.ErrInvalidToken
	}
	return widget, err
}

// GetByUsernamePlatform retrieves a user's widget for a platform.
func (r *WidgetRepository) GetByUsernamePlatform(username, platform string) (*models.Widget, error) {
	query := `
		SELECT id, sequence, username, widget_token, widget_name, widget_type, config_data, spotify_user_id, platform, created_at, updated_at
		FROM widgets
		WHERE username = ? AND platform = ?
	`

	widget, err := scanWidget(r.db.QueryRow(query, username, platform))
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query widget: %w", err)
	}

	return widget, nil
}

func (r *WidgetRepository) getWhere(clause string, arg any) (*models.Widget, error) {
	query := fmt.Sprintf(`
		SELECT id, sequence, username, widget_token, widget_name, widget_type, config_data, spotify_user_id, platform, created_at, updated_at
		FROM widgets
		WHERE %s
	`, clause)

	widget, err := scanWidget(r.db.QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query widget: %w", err)
	}

	return widget, nil
}

// Update modifies an existing widget in the database
func (r *WidgetRepository) Update(widget *models.Widget) error {
	if err := widget.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	widget.SetUpdatedAt(now)

	query := `
		UPDATE widgets
		SET widget_name = ?, widget_type = ?, config_data = ?, spotify_user_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, widget.WidgetName(), widget.WidgetType(), widget.ConfigData(),
		widget.SpotifyUserID(), now, widget.ID())
	if err != nil {
		return fmt.Errorf("failed to update widget: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("widget not found: %s", widget.ID())
	}

	return nil
}

// UpdateConfig replaces the config document for the widget carrying the token.
func (r *WidgetRepository) UpdateConfig(token, configData string) error {
	query := `
		UPDATE widgets
		SET config_data = ?, updated_at = ?
		WHERE widget_token = ?
	`

	result, err := r.db.Exec(query, configData, time.Now(), token)
	if err != nil {
		return fmt.Errorf("failed to update widget config: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return shared.ErrInvalidToken
	}

	return nil
}

// DeleteOrphaned removes widgets whose owner no longer has a linked Spotify
// account. Their tokens cannot render anything and would otherwise validate
// forever. Returns the number of rows removed.
func (r *WidgetRepository) DeleteOrphaned() (int, error) {
	query := `
		DELETE FROM widgets
		WHERE username NOT IN (SELECT username FROM spotify_accounts)
	`

	result, err := r.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned widgets: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// Delete removes a widget by ID
func (r *WidgetRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM widgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete widget: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("widget not found: %s", id)
	}

	return nil
}

// List retrieves all widgets matching the given criteria
func (r *WidgetRepository) List(criteria map[string]any) ([]*models.Widget, error) {
	query := `
		SELECT id, sequence, username, widget_token, widget_name, widget_type, config_data, spotify_user_id, platform, created_at, updated_at
		FROM widgets
		WHERE 1=1
	`

	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	if platform, ok := criteria["platform"].(string); ok && platform != "" {
		query += " AND platform = ?"
		args = append(args, platform)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query widgets: %w", err)
	}
	defer rows.Close()

	var widgets []*models.Widget
	for rows.Next() {
		widget, err := scanWidget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan widget: %w", err)
		}
		widgets = append(widgets, widget)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return widgets, nil
}

func scanWidget(row rowScanner) (*models.Widget, error) {
	var (
		id            string
		sequence      int
		username      string
		widgetToken   string
		widgetName    string
		widgetType    string
		configData    string
		spotifyUserID sql.NullString
		platform      string
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := row.Scan(&id, &sequence, &username, &widgetToken, &widgetName, &widgetType,
		&configData, &spotifyUserID, &platform, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	widget := models.NewWidget(sequence, username, widgetToken, platform)
	widget.SetID(id)
	widget.SetWidgetName(widgetName)
	widget.SetWidgetType(widgetType)
	widget.SetConfigData(configData)
	if spotifyUserID.Valid {
		widget.SetSpotifyUserID(spotifyUserID.String)
	}
	widget.SetCreatedAt(createdAt)
	widget.SetUpdatedAt(updatedAt)

	return widget, nil
}
