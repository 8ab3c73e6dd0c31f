package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tasksync/internal/models"
	"github.com/desertthunder/tasksync/internal/shared"
)

// SyncRunRepository implements models.Repository[*models.SyncRun] for run history.
//
// Runs are append-only records of reconciliation attempts. Delete removes rows
// permanently since history has no soft-delete semantics.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new sync run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (id, sequence, source_account, target_account, list_name, created_count, updated_count, deleted_count, completed_count, succeeded, error, started_at, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.SourceAccount(),
		run.TargetAccount(),
		run.ListName(),
		run.CreatedCount(),
		run.UpdatedCount(),
		run.DeletedCount(),
		run.CompletedCount(),
		run.Succeeded(),
		run.Error(),
		run.StartedAt(),
		run.Duration().Milliseconds(),
		run.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a sync run by ID
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `
		SELECT id, sequence, source_account, target_account, list_name, created_count, updated_count, deleted_count, completed_count, succeeded, error, started_at, duration_ms, created_at
		FROM sync_runs
		WHERE id = ?
	`

	row := r.db.QueryRow(query, id)
	run, err := scanSyncRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sync run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return run, nil
}

// Update rewrites the counts and outcome of an existing run
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE sync_runs
		SET created_count = ?, updated_count = ?, deleted_count = ?, completed_count = ?, succeeded = ?, error = ?, duration_ms = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.CreatedCount(),
		run.UpdatedCount(),
		run.DeletedCount(),
		run.CompletedCount(),
		run.Succeeded(),
		run.Error(),
		run.Duration().Milliseconds(),
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", run.ID())
	}

	return nil
}

// Delete permanently removes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM sync_runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run not found: %s", id)
	}

	return nil
}

// List retrieves sync runs matching the given criteria, newest first.
//
// Supported criteria: source_account, target_account, list_name (strings),
// succeeded (bool), limit (int).
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `
		SELECT id, sequence, source_account, target_account, list_name, created_count, updated_count, deleted_count, completed_count, succeeded, error, started_at, duration_ms, created_at
		FROM sync_runs
		WHERE 1 = 1
	`

	args := []any{}

	if source, ok := criteria["source_account"].(string); ok && source != "" {
		query += " AND source_account = ?"
		args = append(args, source)
	}

	if target, ok := criteria["target_account"].(string); ok && target != "" {
		query += " AND target_account = ?"
		args = append(args, target)
	}

	if list, ok := criteria["list_name"].(string); ok && list != "" {
		query += " AND list_name = ?"
		args = append(args, list)
	}

	if succeeded, ok := criteria["succeeded"].(bool); ok {
		query += " AND succeeded = ?"
		args = append(args, succeeded)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Recent returns the most recent runs across all pairs.
func (r *SyncRunRepository) Recent(limit int) ([]*models.SyncRun, error) {
	return r.List(map[string]any{"limit": limit})
}

// scanSyncRun reconstructs a SyncRun from a row scan function
func scanSyncRun(scan func(dest ...any) error) (*models.SyncRun, error) {
	var (
		id         string
		sequence   int
		source     string
		target     string
		listName   string
		created    int
		updated    int
		deleted    int
		completed  int
		succeeded  bool
		errMessage sql.NullString
		startedAt  time.Time
		durationMS int64
		createdAt  time.Time
	)

	err := scan(&id, &sequence, &source, &target, &listName, &created, &updated, &deleted, &completed, &succeeded, &errMessage, &startedAt, &durationMS, &createdAt)
	if err != nil {
		return nil, err
	}

	run := models.NewSyncRun(source, target, listName)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetCounts(created, updated, deleted, completed)
	run.SetOutcome(succeeded, errMessage.String)
	run.SetTiming(startedAt, time.Duration(durationMS)*time.Millisecond)
	run.SetCreatedAt(createdAt)

	return run, nil
}
