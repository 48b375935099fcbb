package sync

import "fmt"

// ProgressUpdate represents a progress event during a mirror run.
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
	ResolveUsers Phase = iota
	FetchSource
	FetchDest
	ProcessEntries
	DeletePass
	Done
)

func (p Phase) String() string {
	switch p {
	case ResolveUsers:
		return "resolve_users"
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case ProcessEntries:
		return "process_entries"
	case DeletePass:
		return "delete_pass"
	case Done:
		return "done"
	default:
		return ""
	}
}

func resolveUsersUpdate(source, dest string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveUsers,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving %s and %s...", source, dest),
	}
}

func fetchSourceUpdate(user string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Fetching %s's list...", user),
	}
}

func fetchDestUpdate(user string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Fetching %s's list...", user),
	}
}

func processUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessEntries,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func deletePassUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeletePass,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func doneUpdate(summary *Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase: Done,
		Step:  1,
		Total: 1,
		Message: fmt.Sprintf("Done: %d created, %d updated, %d deleted, %d skipped",
			summary.Created, summary.Updated, summary.Deleted, summary.Skipped),
		Data: summary,
	}
}
