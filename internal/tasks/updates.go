package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PurgeSessions Phase = iota
	PruneWidgets
)

func (p Phase) String() string {
	switch p {
	case PurgeSessions:
		return "purge_sessions"
	case PruneWidgets:
		return "prune_widgets"
	default:
		return ""
	}
}

func purgeSessionsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PurgeSessions,
		Step:    step,
		Total:   total,
		Message: "Purging expired sessions...",
	}
}

func purgedSessionsUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PurgeSessions,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Purged %d expired sessions", count),
		Data:    count,
	}
}

func pruneWidgetsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneWidgets,
		Step:    step,
		Total:   total,
		Message: "Pruning orphaned widgets...",
	}
}

func prunedWidgetsUpdate(step, total, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneWidgets,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Pruned %d orphaned widgets", count),
		Data:    count,
	}
}
