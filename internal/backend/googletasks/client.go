// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"taskmirror/internal/config"
	"taskmirror/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks requested per page.
	PageSize = 100

	// APITimeout is the timeout for each API call.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"
)

// Client implements service.Service on a single Google Tasks list.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
}

// New creates a new Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}

	tokenData, err := os.ReadFile(cfg.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}

	// Token source refreshes automatically
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))

	svc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	return &Client{svc: svc, listID: listOrDefault(cfg.Settings.List), timeout: APITimeout}, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client and endpoint (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint, listID string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{svc: svc, listID: listOrDefault(listID), timeout: APITimeout}, nil
}

func listOrDefault(id string) string {
	if id == "" {
		return DefaultListID
	}
	return id
}

// List returns top-level tasks in API position order, with child tasks
// folded into their parent's SubTasks.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	items, err := c.listAll(ctx)
	if err != nil {
		return nil, err
	}
	return foldChildren(items), nil
}

// Create inserts a task and one child task per subtask.
func (c *Client) Create(ctx context.Context, payload service.TaskPayload) (service.Task, error) {
	if err := payload.Validate(); err != nil {
		return service.Task{}, err
	}
	task := service.NewTask("", payload)
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	created, err := c.svc.Tasks.Insert(c.listID, toAPITask(task)).Context(callCtx).Do()
	cancel()
	if err != nil {
		return service.Task{}, wrapError(err)
	}

	if err := c.insertChildren(ctx, created.Id, task.SubTasks); err != nil {
		return service.Task{}, err
	}
	return fromAPITask(created, task.SubTasks), nil
}

// Update reads the current task, applies the partial update and patches it.
// A SubTasks update replaces all child tasks.
func (c *Client) Update(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	if err := update.Validate(); err != nil {
		return service.Task{}, err
	}
	items, err := c.listAll(ctx)
	if err != nil {
		return service.Task{}, err
	}

	var current *tasks.Task
	var children []*tasks.Task
	for _, item := range items {
		switch {
		case item.Id == id:
			current = item
		case item.Parent == id:
			children = append(children, item)
		}
	}
	if current == nil {
		return service.Task{}, fmt.Errorf("task %s: %w", id, service.ErrNotFound)
	}
	sortByPosition(children)

	next := update.Apply(fromAPITask(current, titles(children)))
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	patched, err := c.svc.Tasks.Patch(c.listID, id, toAPITask(next)).Context(callCtx).Do()
	cancel()
	if err != nil {
		return service.Task{}, wrapError(err)
	}

	if update.SubTasks != nil {
		for _, child := range children {
			if err := c.Delete(ctx, child.Id); err != nil {
				return service.Task{}, err
			}
		}
		if err := c.insertChildren(ctx, id, next.SubTasks); err != nil {
			return service.Task{}, err
		}
	}

	return fromAPITask(patched, next.SubTasks), nil
}

// Delete deletes a task. Google Tasks removes its children with it.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func (c *Client) listAll(ctx context.Context) ([]*tasks.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var items []*tasks.Task
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			items = append(items, resp.Items...)
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return items, nil
}

// insertChildren adds subtasks under parentID, keeping their order.
func (c *Client) insertChildren(ctx context.Context, parentID string, subTasks []string) error {
	previous := ""
	for _, title := range subTasks {
		call := c.svc.Tasks.Insert(c.listID, &tasks.Task{Title: title}).Parent(parentID)
		if previous != "" {
			call = call.Previous(previous)
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		child, err := call.Context(callCtx).Do()
		cancel()
		if err != nil {
			return wrapError(err)
		}
		previous = child.Id
	}
	return nil
}

// foldChildren returns top-level tasks sorted by position, each with its
// children's titles as SubTasks.
func foldChildren(items []*tasks.Task) []service.Task {
	var parents []*tasks.Task
	children := make(map[string][]*tasks.Task)
	for _, item := range items {
		if item.Parent == "" {
			parents = append(parents, item)
		} else {
			children[item.Parent] = append(children[item.Parent], item)
		}
	}
	sortByPosition(parents)

	result := make([]service.Task, 0, len(parents))
	for _, p := range parents {
		kids := children[p.Id]
		sortByPosition(kids)
		result = append(result, fromAPITask(p, titles(kids)))
	}
	return result
}

func sortByPosition(items []*tasks.Task) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
}

func titles(items []*tasks.Task) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Title
	}
	return out
}

// wrapError wraps API errors with service errors and user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked (run: taskmirror login): %w", service.ErrUnauthorized)
		case http.StatusNotFound:
			return fmt.Errorf("task: %w", service.ErrNotFound)
		case http.StatusBadRequest:
			return fmt.Errorf("%w: %s", service.ErrInvalidInput, apiErr.Message)
		}
	}

	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}
	return err
}
