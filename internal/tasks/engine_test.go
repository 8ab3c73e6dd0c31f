package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
)

// fakeTaskService is an in-memory TaskService whose mutations take effect,
// so convergence and idempotence can be asserted across repeated reconciles.
type fakeTaskService struct {
	account   string
	listIDs   map[string]string
	store     map[string][]services.Task
	nextID    int
	mutations int

	getListErr     error
	getTasksErr    error
	createErr      error
	createErrAfter int // createErr fires once this many creates succeeded
	deleteErr      error
	createCalls    int
}

func newFakeService(account string, tasks ...services.Task) *fakeTaskService {
	listID := account + "-groceries"
	return &fakeTaskService{
		account: account,
		listIDs: map[string]string{"Groceries": listID},
		store:   map[string][]services.Task{listID: tasks},
	}
}

func (m *fakeTaskService) Account() string { return m.account }

func (m *fakeTaskService) GetListID(ctx context.Context, name string) (string, error) {
	if m.getListErr != nil {
		return "", m.getListErr
	}
	if id, ok := m.listIDs[name]; ok {
		return id, nil
	}
	id := fmt.Sprintf("%s-list%d", m.account, len(m.listIDs)+1)
	m.listIDs[name] = id
	return id, nil
}

func (m *fakeTaskService) GetTasks(ctx context.Context, listID string) ([]services.Task, error) {
	if m.getTasksErr != nil {
		return nil, m.getTasksErr
	}
	return append([]services.Task{}, m.store[listID]...), nil
}

func (m *fakeTaskService) CreateTask(ctx context.Context, listID string, data services.TaskData) (*services.Task, error) {
	if m.createErr != nil && m.createCalls >= m.createErrAfter {
		return nil, m.createErr
	}
	m.createCalls++
	m.mutations++
	m.nextID++

	t := services.Task{
		ID:      fmt.Sprintf("%s-t%d", m.account, m.nextID),
		Status:  services.StatusNeedsAction,
		Updated: "2026-01-01T00:00:00.000Z",
	}
	applyData(&t, data)
	m.store[listID] = append(m.store[listID], t)
	return &t, nil
}

func (m *fakeTaskService) UpdateTask(ctx context.Context, listID, taskID string, data services.TaskData) (*services.Task, error) {
	m.mutations++
	for i, t := range m.store[listID] {
		if t.ID == taskID {
			applyData(&m.store[listID][i], data)
			updated := m.store[listID][i]
			return &updated, nil
		}
	}
	return nil, fmt.Errorf("task not found: %s", taskID)
}

func (m *fakeTaskService) DeleteTask(ctx context.Context, listID, taskID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mutations++
	collection := m.store[listID]
	for i, t := range collection {
		if t.ID == taskID {
			m.store[listID] = append(collection[:i:i], collection[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task not found: %s", taskID)
}

func (m *fakeTaskService) CompleteTask(ctx context.Context, listID, taskID string) error {
	_, err := m.UpdateTask(ctx, listID, taskID, services.CompletedData())
	return err
}

func (m *fakeTaskService) ListLists(ctx context.Context) ([]services.TaskList, error) {
	lists := make([]services.TaskList, 0, len(m.listIDs))
	for title, id := range m.listIDs {
		lists = append(lists, services.TaskList{ID: id, Title: title})
	}
	return lists, nil
}

func applyData(t *services.Task, data services.TaskData) {
	if data.Title != nil {
		t.Title = *data.Title
	}
	if data.Notes != nil {
		t.Notes = *data.Notes
	}
	if data.Due != nil {
		t.Due = *data.Due
	}
	if data.Status != nil {
		t.Status = *data.Status
	}
}

// openTitles returns the normalized keys of non-completed tasks in the fake's list.
func openTitles(m *fakeTaskService) map[string]services.Task {
	titles := map[string]services.Task{}
	for _, t := range m.store[m.listIDs["Groceries"]] {
		if !t.Completed() {
			titles[t.Key()] = t
		}
	}
	return titles
}

func findTask(m *fakeTaskService, title string) (services.Task, bool) {
	for _, t := range m.store[m.listIDs["Groceries"]] {
		if t.Title == title {
			return t, true
		}
	}
	return services.Task{}, false
}

func TestEngine_Reconcile(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	t.Run("Creates Missing Task On Target", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Buy milk", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com")

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Created != 1 {
			t.Errorf("expected 1 created, got %d", result.Created)
		}

		created, ok := findTask(target, "Buy milk")
		if !ok {
			t.Fatal("expected Buy milk on target")
		}
		if created.ID == "a1" {
			t.Error("target task should carry a target-assigned id")
		}
		if created.Completed() {
			t.Error("created task should be open")
		}
		if created.Notes != "" || created.Due != "" {
			t.Errorf("created task should carry empty notes and due, got %+v", created)
		}
	})

	t.Run("Completion Propagates To Target", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Pay rent", Status: services.StatusCompleted, Updated: "2026-01-10T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Pay rent", Status: services.StatusNeedsAction, Updated: "2026-01-09T00:00:00.000Z"},
		)

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Completed != 1 {
			t.Errorf("expected 1 completed, got %d", result.Completed)
		}
		if result.Deleted != 0 || result.Created != 0 {
			t.Errorf("completion must not delete or recreate: %+v", result)
		}

		tgt, ok := findTask(target, "Pay rent")
		if !ok {
			t.Fatal("target task should survive completion")
		}
		if !tgt.Completed() {
			t.Error("target task should be completed")
		}
	})

	t.Run("Completion Propagates Back To Source", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Pay rent", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Pay rent", Status: services.StatusCompleted, Updated: "2026-01-09T00:00:00.000Z"},
		)

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Completed != 1 {
			t.Errorf("expected 1 completed, got %d", result.Completed)
		}

		src, _ := findTask(source, "Pay rent")
		if !src.Completed() {
			t.Error("source task should be completed")
		}
	})

	t.Run("Completed Source Task Absent On Target Is Not Created", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Old chore", Status: services.StatusCompleted, Updated: "2026-01-10T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com")

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Changes() != 0 {
			t.Errorf("expected no changes, got %+v", result)
		}
		if _, ok := findTask(target, "Old chore"); ok {
			t.Error("completed task should not be recreated on target")
		}
	})

	t.Run("Convergence On Disjoint Titles", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Alpha", Notes: "first", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
			services.Task{ID: "a2", Title: "Beta", Due: "2026-02-01", Status: services.StatusNeedsAction, Updated: "2026-01-11T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Gamma", Status: services.StatusNeedsAction, Updated: "2026-01-05T00:00:00.000Z"},
		)

		if _, err := engine.Reconcile(ctx, nil, source, target, "Groceries"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		tgtOpen := openTitles(target)
		srcOpen := openTitles(source)
		if len(tgtOpen) != len(srcOpen) {
			t.Fatalf("expected matching open sets, source %v target %v", srcOpen, tgtOpen)
		}
		for key, srcTask := range srcOpen {
			tgtTask, ok := tgtOpen[key]
			if !ok {
				t.Errorf("target missing %q", key)
				continue
			}
			if tgtTask.Notes != srcTask.Notes || tgtTask.Due != srcTask.Due {
				t.Errorf("content mismatch for %q: %+v vs %+v", key, srcTask, tgtTask)
			}
		}
	})

	t.Run("Duplicate Collapse Keeps Newest", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Buy milk", Notes: "old", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
			services.Task{ID: "a2", Title: "Buy milk", Notes: "new", Status: services.StatusNeedsAction, Updated: "2026-01-12T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Buy milk", Notes: "stale", Status: services.StatusNeedsAction, Updated: "2026-01-08T00:00:00.000Z"},
		)

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Deleted != 1 {
			t.Errorf("expected 1 duplicate deleted, got %d", result.Deleted)
		}
		if result.Updated != 1 {
			t.Errorf("expected 1 content update, got %d", result.Updated)
		}

		srcOpen := openTitles(source)
		if len(srcOpen) != 1 {
			t.Fatalf("expected one surviving source task, got %d", len(srcOpen))
		}
		survivor := srcOpen["buy milk"]
		if survivor.ID != "a2" || survivor.Notes != "new" {
			t.Errorf("expected newest copy to survive, got %+v", survivor)
		}

		tgt, _ := findTask(target, "Buy milk")
		if tgt.Notes != "new" {
			t.Errorf("expected target content updated to newest, got %+v", tgt)
		}
	})

	t.Run("Source Content Wins Over Newer Target", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Buy milk", Notes: "from-source", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Buy milk", Notes: "from-target", Status: services.StatusNeedsAction, Updated: "2026-01-12T00:00:00.000Z"},
		)

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Updated != 1 {
			t.Errorf("expected 1 update, got %+v", result)
		}

		tgt, _ := findTask(target, "Buy milk")
		if tgt.Notes != "from-source" {
			t.Errorf("target should carry the source's content, got %+v", tgt)
		}
		src, _ := findTask(source, "Buy milk")
		if src.Notes != "from-source" {
			t.Errorf("source must not be rewritten by the target, got %+v", src)
		}
		if source.mutations != 0 {
			t.Errorf("expected no source-side mutations, got %d", source.mutations)
		}
	})

	t.Run("Orphan Deletion Spares Completed", func(t *testing.T) {
		source := newFakeService("alice@example.com")
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Stale task", Status: services.StatusNeedsAction, Updated: "2026-01-08T00:00:00.000Z"},
			services.Task{ID: "b2", Title: "Done task", Status: services.StatusCompleted, Updated: "2026-01-07T00:00:00.000Z"},
		)

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Deleted != 1 {
			t.Errorf("expected 1 orphan deleted, got %d", result.Deleted)
		}
		if _, ok := findTask(target, "Stale task"); ok {
			t.Error("open orphan should be deleted")
		}
		if _, ok := findTask(target, "Done task"); !ok {
			t.Error("completed orphan should be retained")
		}
	})

	t.Run("Mixed Status Target Orphans Complete Instead Of Delete", func(t *testing.T) {
		source := newFakeService("alice@example.com")
		target := newFakeService("bob@example.com",
			services.Task{ID: "b1", Title: "Errand", Status: services.StatusNeedsAction, Updated: "2026-01-08T00:00:00.000Z"},
			services.Task{ID: "b2", Title: "Errand", Status: services.StatusCompleted, Updated: "2026-01-07T00:00:00.000Z"},
		)

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Completed != 1 || result.Deleted != 0 {
			t.Errorf("completed copy should shield the open one from deletion: %+v", result)
		}

		open, _ := findTask(target, "Errand")
		if !open.Completed() {
			t.Error("open copy should be completed, not deleted")
		}
	})

	t.Run("Mid Apply Failure Surfaces Partial Counts", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Alpha", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
			services.Task{ID: "a2", Title: "Beta", Status: services.StatusNeedsAction, Updated: "2026-01-11T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com")
		target.createErr = fmt.Errorf("%w: insert failed", shared.ErrAPIRequest)
		target.createErrAfter = 1

		result, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err == nil {
			t.Fatal("expected error from second create")
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected wrapped API error, got %v", err)
		}
		if result == nil || result.Created != 1 {
			t.Errorf("expected partial counts preserved, got %+v", result)
		}
	})

	t.Run("List Resolution Failure Names Account", func(t *testing.T) {
		source := newFakeService("alice@example.com")
		source.getListErr = fmt.Errorf("%w: boom", shared.ErrAPIRequest)
		target := newFakeService("bob@example.com")

		_, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected wrapped API error, got %v", err)
		}
	})

	t.Run("Nil Service", func(t *testing.T) {
		_, err := engine.Reconcile(ctx, nil, nil, newFakeService("bob@example.com"), "Groceries")
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Progress Updates Are Emitted", func(t *testing.T) {
		source := newFakeService("alice@example.com",
			services.Task{ID: "a1", Title: "Buy milk", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
		)
		target := newFakeService("bob@example.com")

		progress := make(chan ProgressUpdate, 64)
		if _, err := engine.Reconcile(ctx, progress, source, target, "Groceries"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		phases := map[Phase]bool{}
		for update := range progress {
			phases[update.Phase] = true
		}
		for _, want := range []Phase{ResolveLists, FetchSource, FetchTarget, Plan, Apply} {
			if !phases[want] {
				t.Errorf("expected %s phase update", want)
			}
		}
	})
}

func TestEngine_Reconcile_Idempotence(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	source := newFakeService("alice@example.com",
		services.Task{ID: "a1", Title: "Alpha", Status: services.StatusNeedsAction, Updated: "2026-01-10T00:00:00.000Z"},
		services.Task{ID: "a2", Title: "Beta", Notes: "remember", Status: services.StatusNeedsAction, Updated: "2026-01-11T00:00:00.000Z"},
		services.Task{ID: "a3", Title: "Done", Status: services.StatusCompleted, Updated: "2026-01-09T00:00:00.000Z"},
	)
	target := newFakeService("bob@example.com",
		services.Task{ID: "b1", Title: "Done", Status: services.StatusNeedsAction, Updated: "2026-01-08T00:00:00.000Z"},
		services.Task{ID: "b2", Title: "Stale", Status: services.StatusNeedsAction, Updated: "2026-01-07T00:00:00.000Z"},
	)

	first, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
	if err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	if first.Changes() == 0 {
		t.Fatal("first reconcile should mutate")
	}

	sourceMutations := source.mutations
	targetMutations := target.mutations

	second, err := engine.Reconcile(ctx, nil, source, target, "Groceries")
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	if second.Changes() != 0 {
		t.Errorf("second reconcile should be a no-op, got %+v", second)
	}
	if source.mutations != sourceMutations || target.mutations != targetMutations {
		t.Error("second reconcile issued remote mutations")
	}
}
