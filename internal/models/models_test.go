package models

import (
	"testing"
	"time"
)

func TestUser(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		user := NewUser(1, "alice", "alice@example.com", "hashed")
		if err := user.Validate(); err != nil {
			t.Errorf("expected valid user, got %v", err)
		}
		if user.Username() != "alice" {
			t.Errorf("expected username alice, got %s", user.Username())
		}
		if user.SpotifyConnected() {
			t.Error("new user should not be spotify connected")
		}
	})

	t.Run("Missing Username", func(t *testing.T) {
		user := NewUser(1, "  ", "alice@example.com", "hashed")
		if err := user.Validate(); err == nil {
			t.Error("expected error for blank username")
		}
	})

	t.Run("Bad Email", func(t *testing.T) {
		user := NewUser(1, "alice", "not-an-email", "hashed")
		if err := user.Validate(); err == nil {
			t.Error("expected error for invalid email")
		}
	})

	t.Run("Missing Password Hash", func(t *testing.T) {
		user := NewUser(1, "alice", "alice@example.com", "")
		if err := user.Validate(); err == nil {
			t.Error("expected error for missing password hash")
		}
	})
}

func TestAuthToken(t *testing.T) {
	t.Run("Active", func(t *testing.T) {
		token := NewAuthToken("user-1", "abc123", time.Hour)
		if err := token.Validate(); err != nil {
			t.Errorf("expected valid token, got %v", err)
		}
		if !token.Active() {
			t.Error("fresh token should be active")
		}
	})

	t.Run("Expired By Time", func(t *testing.T) {
		token := NewAuthToken("user-1", "abc123", -time.Minute)
		if token.Active() {
			t.Error("token past expires_at should not be active")
		}
	})

	t.Run("Expired By Stamp", func(t *testing.T) {
		token := NewAuthToken("user-1", "abc123", time.Hour)
		now := time.Now()
		token.SetExpiredAt(&now)
		if token.Active() {
			t.Error("stamped token should not be active")
		}
	})

	t.Run("Missing User", func(t *testing.T) {
		token := NewAuthToken("", "abc123", time.Hour)
		if err := token.Validate(); err == nil {
			t.Error("expected error for missing user id")
		}
	})
}

func TestSpotifyAccount(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		account := NewSpotifyAccount("alice", "spotify-user-1", "client-id", "client-secret", "refresh-token")
		if err := account.Validate(); err != nil {
			t.Errorf("expected valid account, got %v", err)
		}
	})

	t.Run("Missing Refresh Token", func(t *testing.T) {
		account := NewSpotifyAccount("alice", "spotify-user-1", "client-id", "client-secret", "")
		if err := account.Validate(); err == nil {
			t.Error("expected error for missing refresh token")
		}
	})
}

func TestWidget(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		widget := NewWidget(1, "alice", "tok-abc", "web")
		if err := widget.Validate(); err != nil {
			t.Errorf("expected valid widget, got %v", err)
		}
		if widget.WidgetType() != "now-playing" {
			t.Errorf("expected widget type now-playing, got %s", widget.WidgetType())
		}

		config, err := widget.Config()
		if err != nil {
			t.Fatalf("failed to decode config: %v", err)
		}
		if len(config) != 0 {
			t.Errorf("expected empty config, got %v", config)
		}
	})

	t.Run("Config Round Trip", func(t *testing.T) {
		widget := NewWidget(1, "alice", "tok-abc", "web")
		if err := widget.SetConfig(map[string]any{"theme": "dark", "refresh_seconds": float64(10)}); err != nil {
			t.Fatalf("failed to set config: %v", err)
		}

		config, err := widget.Config()
		if err != nil {
			t.Fatalf("failed to decode config: %v", err)
		}
		if config["theme"] != "dark" {
			t.Errorf("expected theme dark, got %v", config["theme"])
		}
		if config["refresh_seconds"] != float64(10) {
			t.Errorf("expected refresh_seconds 10, got %v", config["refresh_seconds"])
		}
	})

	t.Run("Malformed Config", func(t *testing.T) {
		widget := NewWidget(1, "alice", "tok-abc", "web")
		widget.SetConfigData("{not json")
		if _, err := widget.Config(); err == nil {
			t.Error("expected error for malformed config")
		}
		if err := widget.Validate(); err == nil {
			t.Error("expected validation error for malformed config")
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		widget := NewWidget(1, "alice", "", "web")
		if err := widget.Validate(); err == nil {
			t.Error("expected error for missing widget token")
		}
	})
}
