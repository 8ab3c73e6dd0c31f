package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tasksync/internal/services"
	"github.com/desertthunder/tasksync/internal/shared"
	"github.com/desertthunder/tasksync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	services map[string]services.TaskService
	logger   *log.Logger
	output   io.Writer
	engine   tasks.SyncEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Services map[string]services.TaskService // Pre-built services, keyed by account email
	Logger   *log.Logger
	Output   io.Writer
	Engine   tasks.SyncEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Services == nil {
		opts.Services = map[string]services.TaskService{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Engine == nil {
		opts.Engine = tasks.NewEngine()
	}

	return &Runner{
		config:   opts.Config,
		services: opts.Services,
		logger:   opts.Logger,
		output:   opts.Output,
		engine:   opts.Engine,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, listsCommand, syncCommand, exportCommand, historyCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// oauthConfig builds the OAuth2 config shared by every account.
func (r *Runner) oauthConfig() *oauth2.Config {
	google := r.config.Credentials.Google
	return &oauth2.Config{
		ClientID:     google.ClientID,
		ClientSecret: google.ClientSecret,
		RedirectURL:  google.RedirectURI,
		Scopes:       services.Scopes(),
		Endpoint:     googleauth.Endpoint,
	}
}

// taskService resolves an account email to its TaskService, building and
// caching one from the stored token on first use.
func (r *Runner) taskService(email string) (services.TaskService, error) {
	if svc, ok := r.services[email]; ok {
		return svc, nil
	}

	if _, ok := r.config.Account(email); !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnknownAccount, email)
	}

	guard, err := services.NewCredentialGuard(email, r.oauthConfig(), r.config.TokenPath(email))
	if err != nil {
		return nil, err
	}

	svc := services.NewGoogleTasks(services.GoogleTasksOpts{
		Account:   email,
		Guard:     guard,
		CacheTTL:  r.config.Sync.CacheTTL(),
		RateLimit: r.config.Sync.RequestsPerSecond,
	})
	r.services[email] = svc
	return svc, nil
}

// allServices builds a TaskService for every configured account.
func (r *Runner) allServices() (map[string]services.TaskService, error) {
	resolved := make(map[string]services.TaskService, len(r.config.Accounts))
	for _, account := range r.config.Accounts {
		svc, err := r.taskService(account.Email)
		if err != nil {
			return nil, err
		}
		resolved[account.Email] = svc
	}
	return resolved, nil
}

// openDatabase opens the configured database and runs pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
