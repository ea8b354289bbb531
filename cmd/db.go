package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/beatify/internal/repositories"
	"github.com/desertthunder/beatify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// DBCheck verifies the database is reachable and reports row counts per table.
func (r *Runner) DBCheck(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	r.writePlain("✓ Database reachable at %s\n\n", config.Database.Path)

	for _, table := range []string{"users", "auth_tokens", "spotify_accounts", "widgets"} {
		var count int
		if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return fmt.Errorf("failed to count %s: %w", table, err)
		}
		r.writePlain("%-18s %d\n", table, count)
	}

	return nil
}

// DBSweep runs a single maintenance sweep, printing progress as it goes.
func (r *Runner) DBSweep(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := tasks.NewMaintenanceEngine(
		repositories.NewAuthTokenRepository(db),
		repositories.NewWidgetRepository(db))

	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	go func() {
		for update := range progress {
			r.writePlain("• %s\n", update.Message)
		}
		close(done)
	}()

	result, err := engine.Sweep(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	r.writePlainln("✓ Sweep complete: %d sessions purged, %d widgets pruned",
		result.SessionsPurged, result.WidgetsPruned)

	return nil
}
