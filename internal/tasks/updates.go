package tasks

import (
	"fmt"
)

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

// Sync phase enumeration. A pull moves through these strictly in order;
// a failure aborts the run before any file or ledger mutation.
type Phase int

const (
	LoadRepo Phase = iota
	FetchRemote
	Diff
	Delete
	Download
	Persist
	Done
	Repurge
)

func (p Phase) String() string {
	switch p {
	case LoadRepo:
		return "load_repo"
	case FetchRemote:
		return "fetch_remote"
	case Diff:
		return "diff"
	case Delete:
		return "delete"
	case Download:
		return "download"
	case Persist:
		return "persist"
	case Done:
		return "done"
	case Repurge:
		return "repurge"
	default:
		return ""
	}
}

func loadRepoUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRepo,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loading repository %s...", name),
	}
}

func fetchRemoteUpdate(collectionID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching collection %s...", collectionID),
	}
}

func diffUpdate(local, remote, toDelete, toAdd int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Diff,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Local %d, remote %d: %d to delete, %d to download", local, remote, toDelete, toAdd),
	}
}

func deleteUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Delete,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removing: %s", step, total, title),
	}
}

func downloadUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading: %s", step, total, title),
	}
}

func downloadFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func persistUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Persist,
		Step:    1,
		Total:   1,
		Message: "Saving repository state...",
	}
}

func doneUpdate(result *SyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync complete: %d downloaded, %d deleted, %d failed, %d tracked", result.Downloaded, result.Deleted, result.Failed, result.LedgerSize),
		Data:    result,
	}
}

func repurgeUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Repurge,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Purging: %s", step, total, title),
	}
}
