package tasks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/beatify/internal/models"
	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/shared"
)

func setupEngine(t *testing.T) (*MaintenanceEngine, *sql.DB) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	engine := NewMaintenanceEngine(
		repositories.NewAuthTokenRepository(db),
		repositories.NewWidgetRepository(db))

	return engine, db
}

func createUser(t *testing.T, db *sql.DB, username string) *models.User {
	t.Helper()

	users := repositories.NewUserRepository(db)
	user := models.NewUser(0, username, username+"@example.com", "hash")
	if err := users.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestSweep(t *testing.T) {
	t.Run("Purges Expired Sessions", func(t *testing.T) {
		engine, db := setupEngine(t)
		user := createUser(t, db, "alice")

		tokens := repositories.NewAuthTokenRepository(db)
		if err := tokens.Create(models.NewAuthToken(user.ID(), "stale", -time.Minute)); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}
		if err := tokens.Create(models.NewAuthToken(user.ID(), "fresh", time.Hour)); err != nil {
			t.Fatalf("failed to create token: %v", err)
		}

		result, err := engine.Sweep(context.Background(), nil)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if result.SessionsPurged != 1 {
			t.Errorf("expected 1 session purged, got %d", result.SessionsPurged)
		}

		if _, err := tokens.GetByToken("fresh"); err != nil {
			t.Errorf("expected fresh session to survive: %v", err)
		}
	})

	t.Run("Prunes Orphaned Widgets", func(t *testing.T) {
		engine, db := setupEngine(t)
		createUser(t, db, "linked")
		createUser(t, db, "orphan")

		accounts := repositories.NewSpotifyAccountRepository(db)
		if err := accounts.Upsert(models.NewSpotifyAccount("linked", "sp-1", "cid", "secret", "rt")); err != nil {
			t.Fatalf("failed to link account: %v", err)
		}

		widgets := repositories.NewWidgetRepository(db)
		if err := widgets.Create(models.NewWidget(0, "linked", "tok-linked", "web")); err != nil {
			t.Fatalf("failed to create widget: %v", err)
		}
		if err := widgets.Create(models.NewWidget(0, "orphan", "tok-orphan", "web")); err != nil {
			t.Fatalf("failed to create widget: %v", err)
		}

		result, err := engine.Sweep(context.Background(), nil)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if result.WidgetsPruned != 1 {
			t.Errorf("expected 1 widget pruned, got %d", result.WidgetsPruned)
		}

		if _, err := widgets.GetByToken("tok-linked"); err != nil {
			t.Errorf("expected linked widget to survive: %v", err)
		}
		if _, err := widgets.GetByToken("tok-orphan"); err == nil {
			t.Error("expected orphaned widget to be pruned")
		}
	})

	t.Run("Emits Progress Updates", func(t *testing.T) {
		engine, _ := setupEngine(t)

		progress := make(chan ProgressUpdate, 8)
		if _, err := engine.Sweep(context.Background(), progress); err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) != 4 {
			t.Fatalf("expected 4 updates, got %d", len(phases))
		}
		if phases[0] != PurgeSessions || phases[3] != PruneWidgets {
			t.Errorf("unexpected phase order: %v", phases)
		}
	})

	t.Run("Honors Cancellation", func(t *testing.T) {
		engine, _ := setupEngine(t)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := engine.Sweep(ctx, nil); err == nil {
			t.Error("expected error from cancelled context")
		}
	})
}

func TestPhaseString(t *testing.T) {
	if PurgeSessions.String() != "purge_sessions" {
		t.Errorf("unexpected phase name: %s", PurgeSessions.String())
	}
	if PruneWidgets.String() != "prune_widgets" {
		t.Errorf("unexpected phase name: %s", PruneWidgets.String())
	}
	if Phase(99).String() != "" {
		t.Error("expected empty string for unknown phase")
	}
}
