package auth

import (
	"errors"
	"testing"

	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

func setupService(t *testing.T) *Service {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return NewService(repositories.NewUserRepository(db), repositories.NewAuthTokenRepository(db), 24)
}

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		service := setupService(t)

		user, err := service.Register("alice", "alice@example.com", "correct-horse")
		if err != nil {
			t.Fatalf("failed to register: %v", err)
		}
		if user.PasswordHash() == "correct-horse" {
			t.Error("password must not be stored in plaintext")
		}
	})

	t.Run("Short Password", func(t *testing.T) {
		service := setupService(t)

		if _, err := service.Register("alice", "alice@example.com", "short"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Duplicate Username", func(t *testing.T) {
		service := setupService(t)

		if _, err := service.Register("alice", "alice@example.com", "correct-horse"); err != nil {
			t.Fatalf("failed to register: %v", err)
		}
		if _, err := service.Register("alice", "other@example.com", "correct-horse"); !errors.Is(err, shared.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		service := setupService(t)

		if _, err := service.Register("alice", "alice@example.com", "correct-horse"); err != nil {
			t.Fatalf("failed to register: %v", err)
		}

		token, err := service.Login("alice", "correct-horse")
		if err != nil {
			t.Fatalf("failed to login: %v", err)
		}
		if token.Token() == "" {
			t.Error("expected a session token value")
		}

		user, err := service.ValidateToken(token.Token())
		if err != nil {
			t.Fatalf("failed to validate session: %v", err)
		}
		if user.Username() != "alice" {
			t.Errorf("expected username alice, got %s", user.Username())
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		service := setupService(t)

		if _, err := service.Register("alice", "alice@example.com", "correct-horse"); err != nil {
			t.Fatalf("failed to register: %v", err)
		}
		if _, err := service.Login("alice", "wrong-password"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Unknown User", func(t *testing.T) {
		service := setupService(t)

		if _, err := service.Login("ghost", "whatever-pass"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Invalidates Previous Session", func(t *testing.T) {
		service := setupService(t)

		if _, err := service.Register("alice", "alice@example.com", "correct-horse"); err != nil {
			t.Fatalf("failed to register: %v", err)
		}

		first, err := service.Login("alice", "correct-horse")
		if err != nil {
			t.Fatalf("first login failed: %v", err)
		}
		second, err := service.Login("alice", "correct-horse")
		if err != nil {
			t.Fatalf("second login failed: %v", err)
		}

		if _, err := service.ValidateToken(first.Token()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected first session to be invalid, got %v", err)
		}
		if _, err := service.ValidateToken(second.Token()); err != nil {
			t.Errorf("expected second session to be valid, got %v", err)
		}
	})
}

func TestLogout(t *testing.T) {
	service := setupService(t)

	if _, err := service.Register("alice", "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	token, err := service.Login("alice", "correct-horse")
	if err != nil {
		t.Fatalf("failed to login: %v", err)
	}

	if err := service.Logout(token.Token()); err != nil {
		t.Fatalf("failed to logout: %v", err)
	}
	if _, err := service.ValidateToken(token.Token()); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected session to be invalid after logout, got %v", err)
	}

	if err := service.Logout(token.Token()); err != nil {
		t.Errorf("expected logout to be idempotent, got %v", err)
	}
	if err := service.Logout("never-existed"); err != nil {
		t.Errorf("expected unknown token logout to succeed, got %v", err)
	}
}
