package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Widget is an embeddable now-playing widget. Each widget belongs to one user,
// is addressed by an opaque widget token, and holds its display configuration
// as a JSON document. At most one widget exists per (username, platform).
type Widget struct {
	id            string
	sequence      int
	username      string
	widgetToken   string
	widgetName    string
	widgetType    string
	configData    string
	spotifyUserID string
	platform      string
	createdAt     time.Time
	updatedAt     time.Time
}

// NewWidget creates a Widget for the given user and platform with empty config.
func NewWidget(sequence int, username, widgetToken, platform string) *Widget {
	now := time.Now()
	return &Widget{
		sequence:    sequence,
		username:    username,
		widgetToken: widgetToken,
		widgetName:  fmt.Sprintf("%s's widget", username),
		widgetType:  "now-playing",
		configData:  "{}",
		platform:    platform,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (w *Widget) ID() string { return w.id }

func (w *Widget) Sequence() int { return w.sequence }

func (w *Widget) Username() string { return w.username }

func (w *Widget) WidgetToken() string { return w.widgetToken }

func (w *Widget) WidgetName() string { return w.widgetName }

func (w *Widget) WidgetType() string { return w.widgetType }

func (w *Widget) ConfigData() string { return w.configData }

func (w *Widget) SpotifyUserID() string { return w.spotifyUserID }

func (w *Widget) Platform() string { return w.platform }

func (w *Widget) CreatedAt() time.Time { return w.createdAt }

func (w *Widget) UpdatedAt() time.Time { return w.updatedAt }

func (w *Widget) SetID(id string) { w.id = id }

func (w *Widget) SetSequence(sequence int) { w.sequence = sequence }

func (w *Widget) SetWidgetName(name string) { w.widgetName = name }

func (w *Widget) SetWidgetType(widgetType string) { w.widgetType = widgetType }

func (w *Widget) SetSpotifyUserID(id string) { w.spotifyUserID = id }

func (w *Widget) SetCreatedAt(ts time.Time) { w.createdAt = ts }

func (w *Widget) SetUpdatedAt(ts time.Time) { w.updatedAt = ts }

// Config decodes the stored configuration document. An empty or missing
// document decodes to an empty map.
func (w *Widget) Config() (map[string]any, error) {
	if w.configData == "" {
		return map[string]any{}, nil
	}
	var config map[string]any
	if err := json.Unmarshal([]byte(w.configData), &config); err != nil {
		return nil, fmt.Errorf("invalid widget config: %w", err)
	}
	if config == nil {
		config = map[string]any{}
	}
	return config, nil
}

// SetConfig replaces the stored configuration document.
func (w *Widget) SetConfig(config map[string]any) error {
	if config == nil {
		config = map[string]any{}
	}
	data, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode widget config: %w", err)
	}
	w.configData = string(data)
	return nil
}

// SetConfigData stores a raw configuration document without decoding it.
// Callers that accept config over the wire should validate with Config first.
func (w *Widget) SetConfigData(data string) { w.configData = data }

// Validate checks ownership, token presence, and config well-formedness.
func (w *Widget) Validate() error {
	if w.username == "" {
		return fmt.Errorf("username is required")
	}
	if w.widgetToken == "" {
		return fmt.Errorf("widget token is required")
	}
	if w.platform == "" {
		return fmt.Errorf("platform is required")
	}
	if _, err := w.Config(); err != nil {
		return err
	}
	return nil
}
