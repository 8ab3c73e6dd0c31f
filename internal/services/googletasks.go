// Google Tasks API implementation of [TaskService]
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/tasksync/internal/cache"
	"github.com/desertthunder/tasksync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"
)

const (
	// tasksScope is the OAuth scope required for read/write task access.
	tasksScope = "https://www.googleapis.com/auth/tasks"

	// pageSize is the number of items requested per page.
	pageSize = 100
)

// Scopes returns the OAuth scopes the login flow must request.
func Scopes() []string {
	return []string{tasksScope}
}

// GoogleTasks implements [TaskService] for one Google account.
//
// Each instance owns its credential guard, TTL cache, and rate limiter;
// nothing is shared across accounts.
type GoogleTasks struct {
	account    string
	guard      *CredentialGuard
	svc        *tasks.Service
	store      *cache.Store
	limiter    *rate.Limiter
	endpoint   string
	httpClient *http.Client
}

// GoogleTasksOpts contains configuration options for creating a GoogleTasks service.
type GoogleTasksOpts struct {
	Account    string
	Guard      *CredentialGuard
	CacheTTL   time.Duration
	Clock      cache.Clock
	RateLimit  float64      // requests per second; 0 disables limiting
	Endpoint   string       // base URL override, for testing
	HTTPClient *http.Client // transport override, for testing
}

// NewGoogleTasks creates a [GoogleTasks] service for one account.
//
// The client handle is built lazily on the first call so constructing
// services for every configured account stays cheap.
func NewGoogleTasks(opts GoogleTasksOpts) *GoogleTasks {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &GoogleTasks{
		account:    opts.Account,
		guard:      opts.Guard,
		store:      cache.New(opts.CacheTTL, opts.Clock),
		limiter:    limiter,
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
	}
}

// Account returns the account email this service authenticates as.
func (g *GoogleTasks) Account() string {
	return g.account
}

// prepare runs the pre-call pipeline: credential freshness, client handle
// rebuild on token rotation, then the rate limiter.
func (g *GoogleTasks) prepare(ctx context.Context) error {
	var token *oauth2.Token

	if g.guard != nil {
		fresh, rotated, err := g.guard.EnsureFresh(ctx)
		if err != nil {
			return err
		}
		if rotated {
			g.svc = nil
		}
		token = fresh
	}

	if g.svc == nil {
		svc, err := g.newService(ctx, token)
		if err != nil {
			return fmt.Errorf("%w: failed to create tasks client: %v", shared.ErrServiceUnavailable, err)
		}
		g.svc = svc
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", shared.ErrTimeout, err)
		}
	}

	return nil
}

// newService builds the underlying API client for the given token.
func (g *GoogleTasks) newService(ctx context.Context, token *oauth2.Token) (*tasks.Service, error) {
	var opts []option.ClientOption

	if g.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(g.httpClient))
	} else if token != nil {
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	}

	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	return tasks.NewService(ctx, opts...)
}

// GetListID resolves a list title to its account-local ID.
//
// Cache-checked; on miss it pages through all task lists matching by exact
// title, and creates the list when no match exists. The new ID is cached
// either way.
func (g *GoogleTasks) GetListID(ctx context.Context, name string) (string, error) {
	key := cache.ListKey(name)
	if cached, ok := g.store.Get(key); ok {
		return cached.(string), nil
	}

	if err := g.prepare(ctx); err != nil {
		return "", err
	}

	var listID string
	err := g.svc.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			if list.Title == name {
				listID = list.Id
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && err != errStopPaging {
		return "", classifyError("list tasklists", err)
	}

	if listID == "" {
		created, err := g.svc.Tasklists.Insert(&tasks.TaskList{Title: name}).Context(ctx).Do()
		if err != nil {
			return "", classifyError("create tasklist", err)
		}
		listID = created.Id
	}

	g.store.Set(key, listID)
	return listID, nil
}

// errStopPaging short-circuits Pages once a match is found.
var errStopPaging = fmt.Errorf("stop paging")

// GetTasks fetches the full task collection for a list, following the
// pagination cursor until absent.
//
// Completed and hidden tasks are requested explicitly; omitting them silently
// drops completed-task visibility and breaks completion-state reconciliation.
func (g *GoogleTasks) GetTasks(ctx context.Context, listID string) ([]Task, error) {
	key := cache.TasksKey(listID)
	if cached, ok := g.store.Get(key); ok {
		return cached.([]Task), nil
	}

	if err := g.prepare(ctx); err != nil {
		return nil, err
	}

	var collection []Task
	pageToken := ""
	for {
		call := g.svc.Tasks.List(listID).
			MaxResults(pageSize).
			ShowCompleted(true).
			ShowHidden(true).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, classifyError("list tasks", err)
		}

		for _, item := range resp.Items {
			collection = append(collection, fromAPI(item))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	g.store.Set(key, collection)
	return collection, nil
}

// CreateTask inserts a new task and invalidates the list's snapshot.
func (g *GoogleTasks) CreateTask(ctx context.Context, listID string, data TaskData) (*Task, error) {
	if err := g.prepare(ctx); err != nil {
		return nil, err
	}

	created, err := g.svc.Tasks.Insert(listID, taskBody(data)).Context(ctx).Do()
	if err != nil {
		return nil, classifyError("create task", err)
	}

	g.store.Invalidate(cache.TasksKey(listID))
	task := fromAPI(created)
	return &task, nil
}

// UpdateTask applies a partial update; fields not present in data are left
// untouched server-side. Invalidates the list's snapshot.
func (g *GoogleTasks) UpdateTask(ctx context.Context, listID, taskID string, data TaskData) (*Task, error) {
	if err := g.prepare(ctx); err != nil {
		return nil, err
	}

	updated, err := g.svc.Tasks.Patch(listID, taskID, taskBody(data)).Context(ctx).Do()
	if err != nil {
		return nil, classifyError("update task", err)
	}

	g.store.Invalidate(cache.TasksKey(listID))
	task := fromAPI(updated)
	return &task, nil
}

// DeleteTask removes a task and invalidates the list's snapshot.
func (g *GoogleTasks) DeleteTask(ctx context.Context, listID, taskID string) error {
	if err := g.prepare(ctx); err != nil {
		return err
	}

	if err := g.svc.Tasks.Delete(listID, taskID).Context(ctx).Do(); err != nil {
		return classifyError("delete task", err)
	}

	g.store.Invalidate(cache.TasksKey(listID))
	return nil
}

// CompleteTask marks a task completed via a partial update touching only status.
func (g *GoogleTasks) CompleteTask(ctx context.Context, listID, taskID string) error {
	_, err := g.UpdateTask(ctx, listID, taskID, CompletedData())
	return err
}

// taskBody converts a partial [TaskData] into the API request body.
//
// ForceSendFields carries fields explicitly set to their zero value so a
// cleared notes or due date actually reaches the server.
func taskBody(data TaskData) *tasks.Task {
	body := &tasks.Task{}

	if data.Title != nil {
		body.Title = *data.Title
		if *data.Title == "" {
			body.ForceSendFields = append(body.ForceSendFields, "Title")
		}
	}
	if data.Notes != nil {
		body.Notes = *data.Notes
		if *data.Notes == "" {
			body.ForceSendFields = append(body.ForceSendFields, "Notes")
		}
	}
	if data.Due != nil {
		body.Due = *data.Due
		if *data.Due == "" {
			body.ForceSendFields = append(body.ForceSendFields, "Due")
		}
	}
	if data.Status != nil {
		body.Status = *data.Status
	}

	return body
}

// fromAPI converts an API task to the service model.
func fromAPI(t *tasks.Task) Task {
	return Task{
		ID:      t.Id,
		Title:   t.Title,
		Notes:   t.Notes,
		Due:     t.Due,
		Status:  t.Status,
		Updated: t.Updated,
	}
}

// ListLists returns all task lists for the account, for inspection commands.
func (g *GoogleTasks) ListLists(ctx context.Context) ([]TaskList, error) {
	if err := g.prepare(ctx); err != nil {
		return nil, err
	}

	var lists []TaskList
	err := g.svc.Tasklists.List().MaxResults(pageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		for _, list := range resp.Items {
			lists = append(lists, TaskList{ID: list.Id, Title: list.Title})
		}
		return nil
	})
	if err != nil {
		return nil, classifyError("list tasklists", err)
	}

	return lists, nil
}
