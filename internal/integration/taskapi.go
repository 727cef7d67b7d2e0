package integration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/valter-silva-au/planwise/pkg/models"
)

// IdempotencyHeader carries the key shared by every attempt of a retried
// reorder submission.
const IdempotencyHeader = "Idempotency-Key"

// TokenSource supplies the bearer token for outgoing requests. An empty
// token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token() string { return string(s) }

// ClientConfig configures a TaskAPIClient.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	ReorderRetries int
	RetryBackoff   time.Duration
	Tokens         TokenSource
	HTTPClient     *http.Client
}

// TaskAPIClient talks to the PlanWise REST backend.
type TaskAPIClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	retries    int
	backoff    time.Duration

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	newKey func() string
}

// NewTaskAPIClient creates a client for the backend at cfg.BaseURL.
func NewTaskAPIClient(cfg ClientConfig) *TaskAPIClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &TaskAPIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		retries:    cfg.ReorderRetries,
		backoff:    cfg.RetryBackoff,
		now:        time.Now,
		sleep:      sleepContext,
		newKey:     uuid.NewString,
	}
}

// ListTasks fetches every task of the current user.
func (c *TaskAPIClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	return c.ListTasksFiltered(ctx, nil)
}

// ListTasksFiltered fetches tasks, letting the backend filter on
// completion state when completed is non-nil.
func (c *TaskAPIClient) ListTasksFiltered(ctx context.Context, completed *bool) ([]models.Task, error) {
	path := "/tasks/"
	if completed != nil {
		path += "?" + url.Values{"completed": {strconv.FormatBool(*completed)}}.Encode()
	}
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &tasks); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

// GetTask fetches a single task.
func (c *TaskAPIClient) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &t); err != nil {
		return nil, fmt.Errorf("fetching task %s: %w", id, err)
	}
	return &t, nil
}

// CreateTask creates a task and returns the backend's copy.
func (c *TaskAPIClient) CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/", in, nil, &t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &t, nil
}

// UpdateTask sends a partial update. Unset patch fields are omitted.
func (c *TaskAPIClient) UpdateTask(ctx context.Context, id string, p models.TaskPatch) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), p, nil, &t); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return &t, nil
}

// DeleteTask deletes a task.
func (c *TaskAPIClient) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// ReorderTasks submits a reorder payload. Network and server failures are
// retried with exponential backoff; every attempt carries the same
// Idempotency-Key so the backend can drop duplicates.
func (c *TaskAPIClient) ReorderTasks(ctx context.Context, items []models.ReorderItem) error {
	header := http.Header{}
	header.Set(IdempotencyHeader, c.newKey())

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			if err := c.sleep(ctx, backoff); err != nil {
				return fmt.Errorf("reordering tasks: %w", err)
			}
		}

		lastErr = c.do(ctx, http.MethodPost, "/tasks/reorder", items, header, nil)
		if lastErr == nil || !retryable(lastErr) {
			break
		}
	}
	if lastErr != nil {
		return fmt.Errorf("reordering tasks: %w", lastErr)
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *TaskAPIClient) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp models.LoginResponse
	if err := c.doRaw(ctx, http.MethodPost, "/auth/login", body, nil, "", &resp); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, &APIError{Kind: models.KindServer, Message: "login response carried no access token"}
	}
	return &resp, nil
}

func retryable(err error) bool {
	switch models.KindOf(err) {
	case models.KindNetwork, models.KindServer:
		return true
	}
	return false
}

func (c *TaskAPIClient) do(ctx context.Context, method, path string, in any, header http.Header, out any) error {
	token := c.tokens.Token()
	if token != "" {
		if err := CheckTokenExpiry(token, c.now()); err != nil {
			return err
		}
	}
	return c.doRaw(ctx, method, path, in, header, token, out)
}

func (c *TaskAPIClient) doRaw(ctx context.Context, method, path string, in any, header http.Header, token string, out any) error {
	var body io.Reader
	if in != nil {
		data, err := sonic.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return &APIError{Kind: models.KindServer, Status: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsUnauthorized reports whether err means the session must be renewed.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == models.KindUnauthorized
}
