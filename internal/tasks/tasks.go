// package tasks implements background maintenance for the widget backend.
//
// The core abstraction is MaintenanceEngine, which sweeps expired login
// sessions and orphaned widgets. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers; the Janitor
// runs the engine on a timer inside the server process.
package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/beatify/internal/repositories"
)

// MaintenanceResult contains row counts from a full maintenance sweep.
type MaintenanceResult struct {
	SessionsPurged int // Expired or stamped auth tokens removed
	WidgetsPruned  int // Widgets orphaned by unlink removed
}

// Engine defines maintenance operations over the backing store.
type Engine interface {
	// Sweep purges expired sessions and prunes orphaned widgets.
	Sweep(ctx context.Context, progress chan<- ProgressUpdate) (*MaintenanceResult, error)
}

// MaintenanceEngine implements Engine against the repositories.
type MaintenanceEngine struct {
	tokens  *repositories.AuthTokenRepository
	widgets *repositories.WidgetRepository
}

// NewMaintenanceEngine creates a MaintenanceEngine with the provided repositories.
func NewMaintenanceEngine(tokens *repositories.AuthTokenRepository, widgets *repositories.WidgetRepository) *MaintenanceEngine {
	return &MaintenanceEngine{tokens: tokens, widgets: widgets}
}

// Sweep runs both maintenance phases in order. Progress updates are sent to
// the channel when one is provided; pass nil to run silently.
func (e *MaintenanceEngine) Sweep(ctx context.Context, progress chan<- ProgressUpdate) (*MaintenanceResult, error) {
	result := &MaintenanceResult{}

	send(progress, purgeSessionsUpdate(1, 2))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	purged, err := e.tokens.DeleteExpired()
	if err != nil {
		return nil, err
	}
	result.SessionsPurged = purged
	send(progress, purgedSessionsUpdate(1, 2, purged))

	send(progress, pruneWidgetsUpdate(2, 2))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pruned, err := e.widgets.DeleteOrphaned()
	if err != nil {
		return nil, err
	}
	result.WidgetsPruned = pruned
	send(progress, prunedWidgetsUpdate(2, 2, pruned))

	return result, nil
}

func send(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress != nil {
		progress <- update
	}
}

// Janitor runs a maintenance engine on a timer.
type Janitor struct {
	engine   Engine
	logger   *log.Logger
	interval time.Duration
}

// NewJanitor creates a Janitor sweeping at the given interval.
// Intervals below one minute are raised to one minute.
func NewJanitor(engine Engine, logger *log.Logger, interval time.Duration) *Janitor {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Janitor{engine: engine, logger: logger, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	result, err := j.engine.Sweep(ctx, nil)
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Error("maintenance sweep failed", "error", err)
		}
		return
	}
	if result.SessionsPurged > 0 || result.WidgetsPruned > 0 {
		j.logger.Info("maintenance sweep",
			"sessions_purged", result.SessionsPurged,
			"widgets_pruned", result.WidgetsPruned)
	}
}
