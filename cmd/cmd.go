// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles configuration and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles per-account OAuth authorization.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage account authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize an account via the browser OAuth flow",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "email"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show token state for every configured account",
				Action: r.AuthStatus,
			},
		},
	}
}

// listsCommand handles read-only inspection of remote task lists.
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lists",
		Usage: "Inspect task lists on an account",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List all task lists on an account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Aliases:  []string{"a"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ListsShow,
			},
			{
				Name:  "tasks",
				Usage: "Show the tasks in one list",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Aliases:  []string{"a"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "list",
						Aliases:  []string{"l"},
						Usage:    "List name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include completed tasks",
					},
				},
				Action: r.ListsTasks,
			},
		},
	}
}

// syncCommand handles reconciliation operations.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile task lists across accounts",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the continuous sync loop until interrupted",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Skip persisting run history to the database",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "once",
				Usage: "Run a single sync cycle over every pair and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Skip persisting run history to the database",
					},
				},
				Action: r.SyncOnce,
			},
			{
				Name:   "pairs",
				Usage:  "Show the sync pairs derived from the config",
				Action: r.SyncPairs,
			},
		},
	}
}

// exportCommand handles bulk task list exports.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export task lists to local files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "account",
				Aliases:  []string{"a"},
				Usage:    "Account email",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List name to export (repeatable; defaults to the account's configured lists)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file-writing workers",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}

// historyCommand handles the persisted sync run history.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past sync runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "source",
				Usage: "Filter by source account",
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Filter by target account",
			},
			&cli.StringFlag{
				Name:  "list",
				Usage: "Filter by list name",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}

// watchCommand returns the top-level TUI command for interactive sync monitoring.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"ui", "tui"},
		Usage:   "Launch interactive TUI for monitoring sync cycles",
		Action:  r.Watch,
	}
}
