package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tasksync/internal/models"
	"github.com/desertthunder/tasksync/internal/repositories"
	"github.com/desertthunder/tasksync/internal/shared"
	"github.com/desertthunder/tasksync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// runRecorder persists pair outcomes to the sync_runs table.
type runRecorder struct {
	repo *repositories.SyncRunRepository
}

func (rec *runRecorder) RecordRun(res tasks.PairResult) error {
	run := models.NewSyncRun(res.Pair.SourceAccount, res.Pair.TargetAccount, res.Pair.ListName)
	if res.Result != nil {
		run.SetCounts(res.Result.Created, res.Result.Updated, res.Result.Deleted, res.Result.Completed)
	}

	errMessage := ""
	if res.Err != nil {
		errMessage = res.Err.Error()
	}
	run.SetOutcome(res.Err == nil, errMessage)
	run.SetTiming(res.StartedAt, res.Duration)

	return rec.repo.Create(run)
}

// buildScheduler wires the engine, services, and backoff for the configured pairs.
func (r *Runner) buildScheduler(recorder tasks.Recorder) (*tasks.Scheduler, error) {
	pairs := r.config.SyncPairs()
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no sync pairs derived from the accounts section", shared.ErrInvalidConfig)
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	svcs, err := r.allServices()
	if err != nil {
		return nil, err
	}

	return tasks.NewScheduler(tasks.SchedulerOpts{
		Engine:   r.engine,
		Services: svcs,
		Pairs:    pairs,
		Backoff:  tasks.BackoffFromConfig(r.config.Sync),
		Recorder: recorder,
		Logger:   r.logger,
	}), nil
}

// recorderFromFlags opens the database-backed recorder unless --no-history is
// set. The returned closer is nil when history is disabled.
func (r *Runner) recorderFromFlags(cmd *cli.Command) (tasks.Recorder, func(), error) {
	if cmd.Bool("no-history") {
		return nil, nil, nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	recorder := &runRecorder{repo: repositories.NewSyncRunRepository(db)}
	return recorder, func() { db.Close() }, nil
}

// SyncRun runs the continuous sync loop until the context is canceled.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	recorder, closeDB, err := r.recorderFromFlags(cmd)
	if err != nil {
		return err
	}
	if closeDB != nil {
		defer closeDB()
	}

	scheduler, err := r.buildScheduler(recorder)
	if err != nil {
		return err
	}

	r.logger.Info("starting sync loop", "pairs", len(r.config.SyncPairs()), "interval", r.config.Sync.BaseInterval())
	return scheduler.Run(ctx)
}

// SyncOnce runs a single cycle over every pair and prints a summary.
func (r *Runner) SyncOnce(ctx context.Context, cmd *cli.Command) error {
	recorder, closeDB, err := r.recorderFromFlags(cmd)
	if err != nil {
		return err
	}
	if closeDB != nil {
		defer closeDB()
	}

	scheduler, err := r.buildScheduler(recorder)
	if err != nil {
		return err
	}

	cycle := scheduler.RunCycle(ctx)

	r.writePlainHeader("Sync Cycle Complete")
	for _, res := range cycle.Results {
		if res.Succeeded() {
			r.writePlain("✓ %s", res.Pair)
			if res.Result != nil {
				r.writePlain(": %d created, %d updated, %d completed, %d deleted",
					res.Result.Created, res.Result.Updated, res.Result.Completed, res.Result.Deleted)
			}
			r.writePlain("\n")
		} else {
			r.writePlain("✗ %s: %v\n", res.Pair, res.Err)
		}
	}
	r.writePlain("\n%d pairs in %s\n", len(cycle.Results), cycle.Duration.Round(time.Millisecond))

	if !cycle.Succeeded() {
		return fmt.Errorf("%w: %d of %d pairs failed", shared.ErrPartialSync, cycle.Failed, len(cycle.Results))
	}
	return nil
}

// SyncPairs prints the pairs derived from the accounts section.
func (r *Runner) SyncPairs(ctx context.Context, cmd *cli.Command) error {
	pairs := r.config.SyncPairs()
	if len(pairs) == 0 {
		return r.writePlain("No sync pairs configured. Each account needs lists and share_with entries.\n")
	}

	r.writePlainHeader("Sync Pairs")
	for _, pair := range pairs {
		r.writePlain("%s\n", pair)
	}
	r.writePlain("\n%d pairs\n", len(pairs))
	return nil
}
