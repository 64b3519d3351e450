// Package client is a Go client for the task API. It mirrors the behavior
// of the web frontend: the session token is persisted locally, attached as
// a bearer credential on every call, and discarded as soon as the server
// rejects it with 401 or 403.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gcOssi/spark6/internal/models"
)

// ErrUnauthorized is returned when the server answers 401 or 403. The local
// session has already been discarded when this error is seen.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the failure envelope of a non-auth API error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to one API server on behalf of at most one user session.
// It is not safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	sessionPath string

	token string
	user  *models.User
}

// New creates a Client for the given base URL. sessionPath names the file
// where the token and profile persist between runs; pass "" to keep the
// session in memory only.
func New(baseURL, sessionPath string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		sessionPath: sessionPath,
	}
}

// Token returns the current session token, or "" when anonymous.
func (c *Client) Token() string {
	return c.token
}

// User returns the cached profile of the logged-in user, or nil.
func (c *Client) User() *models.User {
	return c.user
}

// envelope matches the server's response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type authData struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type userData struct {
	User models.User `json:"user"`
}

// Register creates an account and starts a session.
func (c *Client) Register(ctx context.Context, username, email, password string) (models.User, error) {
	var data authData
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return models.User{}, err
	}
	c.setSession(data.Token, data.User)
	return data.User, nil
}

// Login authenticates with a username or email and starts a session.
func (c *Client) Login(ctx context.Context, identifier, password string) (models.User, error) {
	var data authData
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"username": identifier,
		"password": password,
	}, &data)
	if err != nil {
		return models.User{}, err
	}
	c.setSession(data.Token, data.User)
	return data.User, nil
}

// Me re-validates the current token against the server and refreshes the
// cached profile.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var data userData
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &data); err != nil {
		return models.User{}, err
	}
	c.user = &data.User
	c.saveSession()
	return data.User, nil
}

// Logout discards the local session. The server holds no session state, so
// no request is made.
func (c *Client) Logout() {
	c.clearSession()
}

// ListTasks retrieves the caller's tasks in insertion order.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask retrieves a single task by id.
func (c *Client) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &task)
	return task, err
}

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, title, description string) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]string{
		"title":       title,
		"description": description,
	}, &task)
	return task, err
}

// UpdateTask applies a partial update; nil fields stay unchanged.
func (c *Client) UpdateTask(ctx context.Context, id int64, update models.TaskUpdate) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), update, &task)
	return task, err
}

// DeleteTask removes a task and returns the deleted record.
func (c *Client) DeleteTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, &task)
	return task, err
}

// Health fetches the server's health payload.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// do performs one API request, unwrapping the response envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.clearSession()
		return fmt.Errorf("%w: %s", ErrUnauthorized, env.Message)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}
