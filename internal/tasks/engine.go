package tasks

import (
	"context"
	"fmt"
	"sort"

	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
)

// ReconcileResult contains all data from a single pair reconciliation.
type ReconcileResult struct {
	SourceAccount string // Account email tasks were read from
	TargetAccount string // Account email tasks were merged into
	ListName      string // List title shared by both accounts
	SourceCount   int    // Tasks fetched from the source list
	TargetCount   int    // Tasks fetched from the target list
	Created       int    // Tasks created
	Updated       int    // Tasks whose content was rewritten
	Deleted       int    // Tasks deleted (duplicates and orphans)
	Completed     int    // Tasks marked completed
}

// Changes returns the total number of mutations applied.
func (r *ReconcileResult) Changes() int {
	return r.Created + r.Updated + r.Deleted + r.Completed
}

// SyncEngine defines operations for reconciling task lists between accounts.
type SyncEngine interface {
	// Reconcile merges one list between a source and target account by
	// propagating completion, collapsing duplicates, copying missing tasks,
	// and deleting open target tasks absent from the source.
	Reconcile(ctx context.Context, progress chan<- ProgressUpdate, source, target services.TaskService, listName string) (*ReconcileResult, error)

	// ExportLists exports multiple task lists to files with rate limiting and progress tracking.
	ExportLists(ctx context.Context, progress chan<- ProgressUpdate, svc services.TaskService, listNames []string, opts ExportOpts) (*ExportRunResult, error)
}

// Engine implements SyncEngine. It is stateless; all per-account state lives
// in the TaskService implementations handed to each call.
type Engine struct{}

// NewEngine creates a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

type actionKind int

const (
	actComplete actionKind = iota
	actDelete
	actCreate
	actUpdate
)

func (k actionKind) String() string {
	switch k {
	case actComplete:
		return "complete"
	case actDelete:
		return "delete"
	case actCreate:
		return "create"
	case actUpdate:
		return "update"
	default:
		return ""
	}
}

// action is one planned mutation against one side of a pair.
type action struct {
	kind   actionKind
	svc    services.TaskService
	listID string
	task   services.Task
	data   services.TaskData
}

// keyGroup holds both sides' tasks sharing one correlation key.
type keyGroup struct {
	source []services.Task
	target []services.Task
}

// Reconcile merges the named list from source into target and back.
//
// The merge is planned against two full snapshots and then applied, so a
// mid-apply failure leaves both lists in a state the next cycle repairs.
func (e *Engine) Reconcile(ctx context.Context, progress chan<- ProgressUpdate, source, target services.TaskService, listName string) (*ReconcileResult, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("%w: task service not initialized", shared.ErrServiceUnavailable)
	}

	result := &ReconcileResult{
		SourceAccount: source.Account(),
		TargetAccount: target.Account(),
		ListName:      listName,
	}

	e.sendProgress(progress, resolveListsUpdate(listName))

	srcListID, err := source.GetListID(ctx, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve list on %s: %w", source.Account(), err)
	}
	tgtListID, err := target.GetListID(ctx, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve list on %s: %w", target.Account(), err)
	}

	srcTasks, err := source.GetTasks(ctx, srcListID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks from %s: %w", source.Account(), err)
	}
	result.SourceCount = len(srcTasks)
	e.sendProgress(progress, fetchSourceUpdate(source.Account(), len(srcTasks)))

	tgtTasks, err := target.GetTasks(ctx, tgtListID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tasks from %s: %w", target.Account(), err)
	}
	result.TargetCount = len(tgtTasks)
	e.sendProgress(progress, fetchTargetUpdate(target.Account(), len(tgtTasks)))

	actions := e.plan(srcTasks, tgtTasks, source, target, srcListID, tgtListID)
	e.sendProgress(progress, planUpdate(len(actions)))

	for i, act := range actions {
		e.sendProgress(progress, applyUpdate(i+1, len(actions), act.kind.String(), act.task))

		var applyErr error
		switch act.kind {
		case actComplete:
			applyErr = act.svc.CompleteTask(ctx, act.listID, act.task.ID)
			if applyErr == nil {
				result.Completed++
			}
		case actDelete:
			applyErr = act.svc.DeleteTask(ctx, act.listID, act.task.ID)
			if applyErr == nil {
				result.Deleted++
			}
		case actCreate:
			_, applyErr = act.svc.CreateTask(ctx, act.listID, act.data)
			if applyErr == nil {
				result.Created++
			}
		case actUpdate:
			_, applyErr = act.svc.UpdateTask(ctx, act.listID, act.task.ID, act.data)
			if applyErr == nil {
				result.Updated++
			}
		}

		if applyErr != nil {
			return result, fmt.Errorf("failed to %s %q on %s: %w", act.kind, act.task.Title, act.svc.Account(), applyErr)
		}
	}

	return result, nil
}

// plan computes the ordered mutation list that converges both sides.
//
// Keys are processed in sorted order so the plan is deterministic for a given
// pair of snapshots.
func (e *Engine) plan(srcTasks, tgtTasks []services.Task, source, target services.TaskService, srcListID, tgtListID string) []action {
	groups := map[string]*keyGroup{}
	group := func(key string) *keyGroup {
		g, ok := groups[key]
		if !ok {
			g = &keyGroup{}
			groups[key] = g
		}
		return g
	}

	for _, t := range srcTasks {
		g := group(t.Key())
		g.source = append(g.source, t)
	}
	for _, t := range tgtTasks {
		g := group(t.Key())
		g.target = append(g.target, t)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var actions []action
	for _, key := range keys {
		g := groups[key]
		actions = append(actions, e.planKey(g, source, target, srcListID, tgtListID)...)
	}
	return actions
}

// planKey plans one correlation key.
//
// Completion wins over everything else: when any copy is completed, every
// open copy on either side is completed and nothing is created or deleted.
// Otherwise each side collapses its duplicates onto its newest local copy,
// the surviving source copy's content is pushed to the target, and open
// target-only tasks are deleted. Content only ever flows source to target;
// the only source-side mutation outside completion is duplicate collapse.
func (e *Engine) planKey(g *keyGroup, source, target services.TaskService, srcListID, tgtListID string) []action {
	var actions []action

	if anyCompleted(g.source) || anyCompleted(g.target) {
		for _, t := range g.source {
			if !t.Completed() {
				actions = append(actions, action{kind: actComplete, svc: source, listID: srcListID, task: t})
			}
		}
		for _, t := range g.target {
			if !t.Completed() {
				actions = append(actions, action{kind: actComplete, svc: target, listID: tgtListID, task: t})
			}
		}
		return actions
	}

	// Open task absent from the source: the source is authoritative for
	// existence, so target-only keys are removed.
	if len(g.source) == 0 {
		for _, t := range g.target {
			actions = append(actions, action{kind: actDelete, svc: target, listID: tgtListID, task: t})
		}
		return actions
	}

	srcKeep, srcDupes := splitKeep(g.source)
	tgtKeep, tgtDupes := splitKeep(g.target)
	keeper := *srcKeep

	for _, t := range srcDupes {
		actions = append(actions, action{kind: actDelete, svc: source, listID: srcListID, task: t})
	}
	for _, t := range tgtDupes {
		actions = append(actions, action{kind: actDelete, svc: target, listID: tgtListID, task: t})
	}

	if tgtKeep == nil {
		actions = append(actions, action{kind: actCreate, svc: target, listID: tgtListID, task: keeper, data: services.ContentOf(keeper)})
	} else if !contentEqual(*tgtKeep, keeper) {
		actions = append(actions, action{kind: actUpdate, svc: target, listID: tgtListID, task: *tgtKeep, data: services.ContentOf(keeper)})
	}

	return actions
}

// splitKeep picks the side-local survivor and the duplicates to delete.
// The newest local copy survives.
func splitKeep(group []services.Task) (*services.Task, []services.Task) {
	if len(group) == 0 {
		return nil, nil
	}

	keep := newestTask(group)
	var dupes []services.Task
	for _, t := range group {
		if t.ID != keep.ID {
			dupes = append(dupes, t)
		}
	}
	return &keep, dupes
}

func anyCompleted(group []services.Task) bool {
	for _, t := range group {
		if t.Completed() {
			return true
		}
	}
	return false
}

// newestTask returns the winning copy among all candidates.
func newestTask(candidates []services.Task) services.Task {
	keep := candidates[0]
	for _, t := range candidates[1:] {
		if newer(t, keep) {
			keep = t
		}
	}
	return keep
}

// newer reports whether a wins over b. RFC 3339 timestamps order
// lexicographically; the task ID breaks ties so the choice is stable.
func newer(a, b services.Task) bool {
	if a.Updated != b.Updated {
		return a.Updated > b.Updated
	}
	return a.ID > b.ID
}

func contentEqual(a, b services.Task) bool {
	return a.Title == b.Title && a.Notes == b.Notes && a.Due == b.Due
}
