package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tasksync/internal/repositories"
	"github.com/desertthunder/tasksync/internal/shared"
	"github.com/desertthunder/tasksync/internal/tasks"
	"github.com/desertthunder/tasksync/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch launches the interactive terminal UI for sync monitoring.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	pairs := r.config.SyncPairs()
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no sync pairs derived from the accounts section", shared.ErrInvalidConfig)
	}

	svcs, err := r.allServices()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tasksync-watch.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var recorder tasks.Recorder
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
	} else {
		defer db.Close()
		recorder = &runRecorder{repo: repositories.NewSyncRunRepository(db)}
	}

	model := ui.NewModel(ctx, ui.ModelOpts{
		Engine:   r.engine,
		Services: svcs,
		Pairs:    pairs,
		Backoff:  tasks.BackoffFromConfig(r.config.Sync),
		Recorder: recorder,
	})
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
