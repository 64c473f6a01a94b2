package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nibzard/tasksync/internal/config"
	"github.com/nibzard/tasksync/internal/logging"
	"github.com/nibzard/tasksync/internal/metrics"
	"github.com/nibzard/tasksync/internal/todo"
)

const (
	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 5 * time.Second

	// RequestIDHeader carries a unique id for each request.
	RequestIDHeader = "X-Request-ID"

	maxBodySize = 10 << 20
	userAgent   = "tasksync"
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	ValidateResponses bool
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
	Logger            *log.Logger
}

// Client implements Service over HTTP.
type Client struct {
	baseURL  string
	timeout  time.Duration
	validate bool
	http     *http.Client
	limiter  *rate.Limiter
	logger   *log.Logger
}

var _ Service = (*Client)(nil)

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", opts.BaseURL)
	}

	c := &Client{
		baseURL:  base,
		timeout:  opts.Timeout,
		validate: opts.ValidateResponses,
		http:     opts.HTTPClient,
		logger:   opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c, nil
}

// NewFromConfig creates a client from loaded configuration.
func NewFromConfig(cfg *config.Config, logger *log.Logger) (*Client, error) {
	return New(Options{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout(),
		ValidateResponses: cfg.ValidateResponses,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		Logger:            logger,
	})
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type listEnvelope struct {
	Success bool        `json:"success"`
	Tasks   []todo.Task `json:"tasks"`
}

// taskEnvelope is a single-task reply. Create and update replies may be
// just {"success": true}, so Task is optional.
type taskEnvelope struct {
	Success bool       `json:"success"`
	Task    *todo.Task `json:"task"`
}

// List implements Service.
func (c *Client) List(ctx context.Context, filter todo.Filter) ([]todo.Task, error) {
	query := url.Values{}
	if status := filter.Status(); status != "" {
		query.Set("status", string(status))
	}

	body, err := c.do(ctx, "list", http.MethodGet, "/api/tasks", query, nil, todo.ListSchema)
	if err != nil {
		return nil, err
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("list: decode response: %w", err)
	}
	if c.validate {
		if err := todo.ValidateTasks(env.Tasks); err != nil {
			return nil, fmt.Errorf("list: invalid response: %w", err)
		}
	}
	if env.Tasks == nil {
		env.Tasks = []todo.Task{}
	}
	return env.Tasks, nil
}

// Get implements Service.
func (c *Client) Get(ctx context.Context, id todo.ID) (todo.Task, error) {
	task, err := c.taskCall(ctx, "get", http.MethodGet, taskPath(id), nil, todo.ItemSchema)
	if err != nil {
		return todo.Task{}, err
	}
	if task == nil {
		return todo.Task{}, fmt.Errorf("get: response has no task")
	}
	return *task, nil
}

// Create implements Service.
func (c *Client) Create(ctx context.Context, draft todo.Draft) (todo.Task, error) {
	if err := draft.Validate(); err != nil {
		return todo.Task{}, fmt.Errorf("create: %w", err)
	}
	task, err := c.taskCall(ctx, "create", http.MethodPost, "/api/tasks", draft, todo.ResultSchema)
	if err != nil || task == nil {
		return todo.Task{}, err
	}
	return *task, nil
}

// Update implements Service.
func (c *Client) Update(ctx context.Context, id todo.ID, patch todo.Patch) (todo.Task, error) {
	if err := patch.Validate(); err != nil {
		return todo.Task{}, fmt.Errorf("update: %w", err)
	}
	task, err := c.taskCall(ctx, "update", http.MethodPut, taskPath(id), patch, todo.ResultSchema)
	if err != nil {
		return todo.Task{}, err
	}
	if task == nil {
		return todo.Task{ID: id}, nil
	}
	return *task, nil
}

// Delete implements Service.
func (c *Client) Delete(ctx context.Context, id todo.ID) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, taskPath(id), nil, nil, todo.ResultSchema)
	return err
}

// Ping implements Service.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/ping", nil, nil, "")
	return err
}

// taskCall sends a single-task request. The returned task is nil when the
// reply carries none.
func (c *Client) taskCall(ctx context.Context, op, method, path string, payload any, schema string) (*todo.Task, error) {
	body, err := c.do(ctx, op, method, path, nil, payload, schema)
	if err != nil {
		return nil, err
	}

	var env taskEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if env.Task != nil && c.validate {
		if err := env.Task.Validate(); err != nil {
			return nil, fmt.Errorf("%s: invalid response: %w", op, err)
		}
	}
	return env.Task, nil
}

func taskPath(id todo.ID) string {
	return "/api/tasks/" + url.PathEscape(string(id))
}

// do sends one request and returns the body of a successful response.
// Non-2xx statuses and success=false bodies become *APIError.
func (c *Client) do(parent context.Context, op, method, path string, query url.Values, payload any, schema string) (body []byte, err error) {
	start := time.Now()
	requestID := uuid.NewString()
	status := 0
	defer func() {
		metrics.ObserveRequest(op, start, err)
		fields := []any{"op", op, "method", method, "path", path, "status", status,
			"request_id", requestID, "duration", time.Since(start).Round(time.Millisecond)}
		if err != nil {
			c.logger.Debug("api request failed", append(fields, "err", err)...)
			return
		}
		c.logger.Debug("api request", fields...)
	}()

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(parent); err != nil {
			return nil, fmt.Errorf("%s: rate limit: %w", op, err)
		}
		metrics.ObserveRateLimitWait(time.Since(waitStart))
	}

	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.wrapError(op, parent, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.wrapError(op, parent, fmt.Errorf("read response: %w", err))
	}

	if path == "/ping" {
		if status < 200 || status > 299 {
			return nil, &APIError{Op: op, Status: status}
		}
		return body, nil
	}

	var env struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	jsonErr := json.Unmarshal(body, &env)

	if status < 200 || status > 299 {
		msg := env.Error
		if jsonErr != nil {
			msg = ""
		}
		return nil, &APIError{Op: op, Status: status, Message: msg}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, jsonErr)
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{Op: op, Status: status, Message: env.Error}
	}
	if c.validate && schema != "" {
		if err := todo.ValidateEnvelope(schema, body); err != nil {
			return nil, fmt.Errorf("%s: invalid response: %w", op, err)
		}
	}
	return body, nil
}
