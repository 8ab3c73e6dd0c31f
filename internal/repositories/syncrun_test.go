package repositories

import (
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/tasksync/internal/models"
	"github.com/desertthunder/tasksync/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// newTestRun builds a valid completed run for alice -> bob
func newTestRun(listName string, succeeded bool) *models.SyncRun {
	run := models.NewSyncRun("alice@example.com", "bob@example.com", listName)
	run.SetCounts(2, 1, 0, 3)
	if succeeded {
		run.SetOutcome(true, "")
	} else {
		run.SetOutcome(false, "quota exceeded")
	}
	run.SetTiming(time.Now().Add(-time.Minute), 1200*time.Millisecond)
	return run
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newTestRun("Groceries", true)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() == 0 {
			t.Error("run sequence should be set after creation")
		}
	})

	t.Run("Create Rejects Invalid Run", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := models.NewSyncRun("", "bob@example.com", "Groceries")

		if err := repo.Create(run); err == nil {
			t.Error("expected validation error for missing source account")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newTestRun("Groceries", false)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}

		if retrieved.SourceAccount() != run.SourceAccount() {
			t.Errorf("expected source %s, got %s", run.SourceAccount(), retrieved.SourceAccount())
		}
		if retrieved.Succeeded() {
			t.Error("expected failed run")
		}
		if retrieved.Error() != "quota exceeded" {
			t.Errorf("expected error message preserved, got %q", retrieved.Error())
		}
		if retrieved.CompletedCount() != 3 {
			t.Errorf("expected 3 completed, got %d", retrieved.CompletedCount())
		}
		if retrieved.Duration() != 1200*time.Millisecond {
			t.Errorf("expected 1.2s duration, got %v", retrieved.Duration())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newTestRun("Groceries", true)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		run.SetCounts(5, 0, 0, 0)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if retrieved.CreatedCount() != 5 {
			t.Errorf("expected 5 created after update, got %d", retrieved.CreatedCount())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newTestRun("Groceries", true)

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete sync run: %v", err)
		}

		if _, err := repo.Get(run.ID()); err == nil {
			t.Error("expected error when getting deleted run")
		}
	})

	t.Run("List Filters And Orders", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)

		for _, run := range []*models.SyncRun{
			newTestRun("Groceries", true),
			newTestRun("Groceries", false),
			newTestRun("Chores", true),
		} {
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create sync run: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list sync runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].Sequence() < all[1].Sequence() {
			t.Error("expected newest run first")
		}

		groceries, err := repo.List(map[string]any{"list_name": "Groceries"})
		if err != nil {
			t.Fatalf("failed to list sync runs: %v", err)
		}
		if len(groceries) != 2 {
			t.Errorf("expected 2 Groceries runs, got %d", len(groceries))
		}

		failed, err := repo.List(map[string]any{"succeeded": false})
		if err != nil {
			t.Fatalf("failed to list sync runs: %v", err)
		}
		if len(failed) != 1 {
			t.Errorf("expected 1 failed run, got %d", len(failed))
		}
	})

	t.Run("Recent Applies Limit", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		for range 5 {
			if err := repo.Create(newTestRun("Groceries", true)); err != nil {
				t.Fatalf("failed to create sync run: %v", err)
			}
		}

		recent, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("failed to get recent runs: %v", err)
		}
		if len(recent) != 2 {
			t.Errorf("expected 2 recent runs, got %d", len(recent))
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "sync_runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	second, err := NextSequence(db, "sync_runs")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected sequence to increment, got %d then %d", first, second)
	}
}
