// Package rest implements service.Service against a JSON task API.
//
// The API exposes /api/tasks (GET list, POST create) and /api/tasks/{id}
// (PUT partial update, DELETE). Records carry their identifier as "_id".
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskmirror/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	tasksPath = "/api/tasks"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 512
)

// APIError is returned for non-2xx responses that map to no service error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Client implements service.Service over HTTP.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a client for the API at endpoint.
// A non-empty token is sent as an OAuth2 bearer token.
func New(ctx context.Context, endpoint, token string) (*Client, error) {
	httpClient := http.DefaultClient
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	}
	return NewWithHTTPClient(endpoint, httpClient)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(endpoint string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid endpoint: %q is not an absolute URL", endpoint)
	}
	return &Client{base: base, http: httpClient}, nil
}

// List returns all tasks in API order.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, tasksPath, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// Create creates a task and returns the stored record.
func (c *Client) Create(ctx context.Context, payload service.TaskPayload) (service.Task, error) {
	if err := payload.Validate(); err != nil {
		return service.Task{}, err
	}
	var task service.Task
	if err := c.do(ctx, http.MethodPost, tasksPath, payload, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Update sends a partial update and returns the full updated record.
func (c *Client) Update(ctx context.Context, id string, update service.TaskUpdate) (service.Task, error) {
	if err := update.Validate(); err != nil {
		return service.Task{}, err
	}
	var task service.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), update, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id string) string {
	return tasksPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps a non-2xx response to a service error.
func statusError(resp *http.Response) error {
	msg := errorMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", orDefault(msg, "task"), service.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", service.ErrInvalidInput, orDefault(msg, "rejected by server"))
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("token expired or revoked: %w", service.ErrUnauthorized)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// errorMessage extracts {"message": "..."} or {"error": "..."} from a body,
// falling back to the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(data))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return err
}
