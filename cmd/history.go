package main

import (
	"context"
	"time"

	"github.com/desertthunder/tasksync/internal/models"
	"github.com/desertthunder/tasksync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON projection of a stored sync run.
type historyEntry struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"sequence"`
	SourceAccount string    `json:"source_account"`
	TargetAccount string    `json:"target_account"`
	ListName      string    `json:"list_name"`
	Created       int       `json:"created"`
	Updated       int       `json:"updated"`
	Deleted       int       `json:"deleted"`
	Completed     int       `json:"completed"`
	Succeeded     bool      `json:"succeeded"`
	Error         string    `json:"error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	DurationMS    int64     `json:"duration_ms"`
}

func toHistoryEntry(run *models.SyncRun) historyEntry {
	return historyEntry{
		ID:            run.ID(),
		Sequence:      run.Sequence(),
		SourceAccount: run.SourceAccount(),
		TargetAccount: run.TargetAccount(),
		ListName:      run.ListName(),
		Created:       run.CreatedCount(),
		Updated:       run.UpdatedCount(),
		Deleted:       run.DeletedCount(),
		Completed:     run.CompletedCount(),
		Succeeded:     run.Succeeded(),
		Error:         run.Error(),
		StartedAt:     run.StartedAt(),
		DurationMS:    run.Duration().Milliseconds(),
	}
}

// History shows persisted sync runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewSyncRunRepository(db)

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if source := cmd.String("source"); source != "" {
		criteria["source_account"] = source
	}
	if target := cmd.String("target"); target != "" {
		criteria["target_account"] = target
	}
	if listName := cmd.String("list"); listName != "" {
		criteria["list_name"] = listName
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(runs))
		for _, run := range runs {
			entries = append(entries, toHistoryEntry(run))
		}
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs recorded yet.\n")
	}

	r.writePlainHeader("Sync History")
	for _, run := range runs {
		marker := "✓"
		if !run.Succeeded() {
			marker = "✗"
		}
		r.writePlain("%s #%d %s -> %s [%s] %s\n",
			marker, run.Sequence(), run.SourceAccount(), run.TargetAccount(), run.ListName(),
			run.StartedAt().Format("2006-01-02 15:04:05"))
		r.writePlain("    %d created, %d updated, %d completed, %d deleted in %s\n",
			run.CreatedCount(), run.UpdatedCount(), run.CompletedCount(), run.DeletedCount(),
			run.Duration().Round(time.Millisecond))
		if run.Error() != "" {
			r.writePlain("    error: %s\n", run.Error())
		}
	}
	r.writePlain("\n%d runs\n", len(runs))
	return nil
}
