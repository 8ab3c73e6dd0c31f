package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tasksync/internal/services"
	"github.com/urfave/cli/v3"
)

// ListsShow prints every task list on an account.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	account := cmd.String("account")

	svc, err := r.taskService(account)
	if err != nil {
		return err
	}

	lists, err := svc.ListLists(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch lists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Task Lists: %s", account))
	for _, list := range lists {
		r.writePlain("%s (%s)\n", list.Title, list.ID)
	}
	r.writePlain("\n%d lists\n", len(lists))
	return nil
}

// ListsTasks prints the tasks in one list. Completed tasks are hidden unless
// --all is set.
func (r *Runner) ListsTasks(ctx context.Context, cmd *cli.Command) error {
	account := cmd.String("account")
	listName := cmd.String("list")

	svc, err := r.taskService(account)
	if err != nil {
		return err
	}

	listID, err := svc.GetListID(ctx, listName)
	if err != nil {
		return fmt.Errorf("failed to resolve list %q: %w", listName, err)
	}

	allTasks, err := svc.GetTasks(ctx, listID)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	shown := allTasks
	if !cmd.Bool("all") {
		shown = make([]services.Task, 0, len(allTasks))
		for _, task := range allTasks {
			if !task.Completed() {
				shown = append(shown, task)
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(shown, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s / %s", account, listName))
	for _, task := range shown {
		marker := "[ ]"
		if task.Completed() {
			marker = "[x]"
		}
		r.writePlain("%s %s", marker, task.Title)
		if task.Due != "" {
			r.writePlain(" (due %s)", task.Due)
		}
		r.writePlain("\n")
		if task.Notes != "" {
			r.writePlain("    %s\n", task.Notes)
		}
	}
	r.writePlain("\n%d of %d tasks shown\n", len(shown), len(allTasks))
	return nil
}
