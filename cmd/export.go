package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tasksync/internal/shared"
	"github.com/desertthunder/tasksync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export exports task lists from one account to local files.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	account := cmd.String("account")

	svc, err := r.taskService(account)
	if err != nil {
		return err
	}

	listNames := cmd.StringSlice("list")
	if len(listNames) == 0 {
		entry, ok := r.config.Account(account)
		if !ok || len(entry.Lists) == 0 {
			return fmt.Errorf("%w: no lists given and none configured for %s", shared.ErrMissingArgument, account)
		}
		listNames = entry.Lists
	}

	r.logger.Info("starting export", "account", account, "lists", len(listNames), "format", cmd.String("format"))
	r.writePlain("Exporting %d lists from %s...\n\n", len(listNames), account)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.ExportLists(ctx, progressCh, svc, listNames, tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Sync.RequestsPerSecond,
	})
	close(progressCh)

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Output directory: %s\n", result.OutputDirectory)
	r.writePlain("Successful: %d/%d\n", result.SuccessfulExports, result.TotalLists)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		r.writePlain("\nFailed lists:\n")
		for _, listResult := range result.Results {
			if !listResult.Success {
				r.writePlain("  - %s: %v\n", listResult.ListName, listResult.Error)
			}
		}
		return fmt.Errorf("%w: %d of %d exports failed", shared.ErrPartialSync, result.FailedExports, result.TotalLists)
	}

	return nil
}
