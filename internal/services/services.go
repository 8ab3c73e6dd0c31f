// package services defines interface TaskService for one account's remote task store
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/tasksync/internal/shared"
	"google.golang.org/api/googleapi"
)

// Task status values used by the remote API.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// Task represents one unit of work in a list.
//
// The ID is assigned by the owning account on creation and is meaningless on
// any other account; the same logical task has unrelated IDs on two sides.
// Updated is an RFC 3339 timestamp and is the last-writer-wins signal.
type Task struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Notes   string `json:"notes,omitempty"`
	Due     string `json:"due,omitempty"`
	Status  string `json:"status"`
	Updated string `json:"updated,omitempty"`
}

// Completed reports whether the task's status is completed.
func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// Key returns the cross-account correlation key for the task.
func (t Task) Key() string {
	return shared.NormalizeTitleKey(t.Title)
}

// TaskList is a named, per-account container of tasks. The title is the only
// field shared across accounts.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TaskData carries a partial task update. Nil fields are left untouched
// server-side; only title, notes, due, and status are ever synchronized.
type TaskData struct {
	Title  *string
	Notes  *string
	Due    *string
	Status *string
}

// ContentOf builds the TaskData that copies a task's synchronized content
// fields, stripping the account-local ID and status.
func ContentOf(t Task) TaskData {
	title, notes, due := t.Title, t.Notes, t.Due
	return TaskData{Title: &title, Notes: &notes, Due: &due}
}

// CompletedData returns the partial update marking a task completed.
func CompletedData() TaskData {
	status := StatusCompleted
	return TaskData{Status: &status}
}

// TaskService is the cached CRUD façade over one account's task lists.
//
// GetListID creates the list when no title match exists, so a configured
// list name always resolves. GetTasks returns the full collection including
// completed and hidden tasks; omitting those breaks reconciliation of
// completion state.
type TaskService interface {
	// Account returns the account email this service authenticates as.
	Account() string

	// GetListID resolves a list title to the account-local list ID, creating
	// the list if it does not exist.
	GetListID(ctx context.Context, name string) (string, error)

	// GetTasks fetches all tasks in the list, following pagination, including
	// completed and hidden tasks.
	GetTasks(ctx context.Context, listID string) ([]Task, error)

	// CreateTask inserts a new task built from data.
	CreateTask(ctx context.Context, listID string, data TaskData) (*Task, error)

	// UpdateTask applies a partial update; nil fields are left untouched.
	UpdateTask(ctx context.Context, listID, taskID string, data TaskData) (*Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, listID, taskID string) error

	// CompleteTask marks a task completed without touching other fields.
	CompleteTask(ctx context.Context, listID, taskID string) error

	// ListLists fetches every task list on the account.
	ListLists(ctx context.Context) ([]TaskList, error)
}

// quotaReasons are the googleapi error reasons that signal rate limiting
// rather than a credential problem on a 403.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// classifyError maps a Google API error onto the shared error taxonomy.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
	}

	switch gerr.Code {
	case 429:
		return fmt.Errorf("%w: %s: %v", shared.ErrQuotaExceeded, op, err)
	case 403:
		for _, item := range gerr.Errors {
			if quotaReasons[item.Reason] {
				return fmt.Errorf("%w: %s: %v", shared.ErrQuotaExceeded, op, err)
			}
		}
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	case 401:
		return fmt.Errorf("%w: %s: %v", shared.ErrTokenExpired, op, err)
	case 404:
		return fmt.Errorf("%w: %s: %v", shared.ErrTaskNotFound, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
	}
}
