package tasks

import (
	"fmt"

	"github.com/desertthunder/tasksync/internal/services"
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

// Operation phase enumeration
type Phase int

const (
	ResolveLists Phase = iota
	FetchSource
	FetchTarget
	Plan
	Apply
	ExportList
)

func (p Phase) String() string {
	switch p {
	case ResolveLists:
		return "resolve_lists"
	case FetchSource:
		return "fetch_source"
	case FetchTarget:
		return "fetch_target"
	case Plan:
		return "plan"
	case Apply:
		return "apply"
	case ExportList:
		return "export_list"
	default:
		return ""
	}
}

func resolveListsUpdate(listName string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveLists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving list %q on both accounts...", listName),
	}
}

func fetchSourceUpdate(account string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Fetched %d tasks from %s", count, account),
	}
}

func fetchTargetUpdate(account string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTarget,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Fetched %d tasks from %s", count, account),
	}
}

func planUpdate(actionCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Plan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Planned %d changes", actionCount),
	}
}

func applyUpdate(step, total int, action string, t services.Task) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Apply,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: %s", step, total, action, t.Title),
	}
}

func exportingListUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportList,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
