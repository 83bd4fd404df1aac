/*
Package tasks talks to the crowd-task service and drives an annotation session.

The service answers every call with the same JSON envelope:

	{"result": {...}, "errors": [...]}

A missing task type or an exhausted queue comes back as 404, which the
Client reports as ErrNoTasks. The Controller keeps the current task in a
session.Session and implements the load/skip/save flow on top of the Client.
*/
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vulyk/suggestserve/internal/logger"
	"github.com/vulyk/suggestserve/pkg/session"
)

var (
	// ErrNoTasks is returned when the service has no task of the requested type.
	ErrNoTasks = errors.New("no tasks available")
	// ErrNoTaskType is returned by Controller methods called before Start.
	ErrNoTaskType = errors.New("no task type selected")
)

// APIError is a non-2xx response other than 404.
type APIError struct {
	Status int
	Errors []string
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("task service returned %d", e.Status)
	}
	return fmt.Sprintf("task service returned %d: %s", e.Status, strings.Join(e.Errors, "; "))
}

// Stats is the user's standing for a task type.
type Stats struct {
	Total    int `json:"total"`
	Position int `json:"position"`
}

// Next is the result of a next-task call.
type Next struct {
	Task  session.Task `json:"task"`
	Stats Stats        `json:"stats"`
}

// Messages decodes the envelope's errors field, which is usually a list of
// strings but is a bare string on some endpoints.
type Messages []string

func (m *Messages) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*m = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("unexpected errors field: %s", data)
	}
	if single == "" {
		*m = nil
	} else {
		*m = Messages{single}
	}
	return nil
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Errors Messages        `json:"errors"`
}

// Client is an HTTP client for the task service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.New("tasks"),
	}
}

// SetLogger replaces the client logger.
func (c *Client) SetLogger(l *log.Logger) {
	c.logger = l
}

// Types lists the task types available to the user.
func (c *Client) Types(ctx context.Context) ([]string, error) {
	var result struct {
		Types []string `json:"types"`
	}
	if err := c.do(ctx, http.MethodGet, "/types", nil, &result); err != nil {
		return nil, err
	}
	return result.Types, nil
}

// Next fetches the next task of taskType.
func (c *Client) Next(ctx context.Context, taskType string) (*Next, error) {
	var result Next
	if err := c.do(ctx, http.MethodGet, taskPath(taskType, "next"), nil, &result); err != nil {
		return nil, err
	}
	if result.Task.ID == "" {
		return nil, ErrNoTasks
	}
	return &result, nil
}

// Skip puts the task on the user's skipped list.
func (c *Client) Skip(ctx context.Context, taskType, id string) error {
	return c.do(ctx, http.MethodPost, taskPath(taskType, "skip", id), url.Values{}, nil)
}

// Done submits the answer for a task. result is sent JSON-encoded.
func (c *Client) Done(ctx context.Context, taskType, id string, result any) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	form := url.Values{"result": {string(raw)}}
	return c.do(ctx, http.MethodPost, taskPath(taskType, "done", id), form, nil)
}

func taskPath(taskType string, parts ...string) string {
	segments := append([]string{"type", url.PathEscape(taskType)}, parts...)
	for i := 2; i < len(segments); i++ {
		segments[i] = url.PathEscape(segments[i])
	}
	return "/" + strings.Join(segments, "/")
}

// do performs a request and decodes the envelope result into out (if non-nil).
// A non-nil form makes the request a form POST.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debugf("%s %s -> %d in %v", method, path, resp.StatusCode, time.Since(start))

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	switch {
	case resp.StatusCode == http.StatusNotFound && len(env.Errors) == 0:
		return ErrNoTasks
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNoTasks, strings.Join(env.Errors, "; "))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Status: resp.StatusCode, Errors: env.Errors}
	case decodeErr != nil:
		return fmt.Errorf("failed to decode %s response: %w", path, decodeErr)
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", path, err)
	}
	return nil
}
