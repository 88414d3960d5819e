// Package client talks to a taskpoll server. Pull and WaitResult follow the
// server's long-polling protocol: a 307 answer means the polling interval
// elapsed and the same request is issued again.
package client

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

	"github.com/aatumaykin/taskpoll/internal/constants"
	"github.com/aatumaykin/taskpoll/internal/logger"
	"github.com/aatumaykin/taskpoll/internal/queue"
	"github.com/aatumaykin/taskpoll/internal/retry"
	"github.com/google/uuid"
)

const maxResponseBytes = 16 << 20

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("server unavailable")
	ErrBadRequest  = errors.New("bad request")
)

// StatusError is returned for unexpected HTTP answers.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Code, e.Message)
}

// Unwrap maps the status code onto a package sentinel.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusNotFound:
		return ErrNotFound
	case e.Code == http.StatusConflict:
		return ErrConflict
	case e.Code == http.StatusBadRequest:
		return ErrBadRequest
	case e.Code >= http.StatusInternalServerError:
		return ErrUnavailable
	}
	return nil
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	retry   retry.Config
	logger  *logger.Logger
}

type Option func(*Client)

// WithHTTPClient uses hc for requests. Its redirect policy is replaced, the
// client handles 307 answers itself. A nil hc is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		copied := *hc
		c.http = &copied
	}
}

func WithRetry(cfg retry.Config) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if c.retry.Logger == nil {
		c.retry.Logger = c.logger
	}
	return c, nil
}

type response struct {
	status int
	body   []byte
}

// roundTrip performs one logical request, retrying transient failures.
func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) (response, error) {
	return retry.Do(ctx, c.retry, func(ctx context.Context) (response, error) {
		return c.once(ctx, method, path, body)
	})
}

// once performs a single HTTP exchange. 5xx answers are returned as
// retryable errors.
func (c *Client) once(ctx context.Context, method, path string, body []byte) (response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return response{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(constants.HeaderRequestID, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return response{}, retry.Retryable(statusError(resp.StatusCode, data))
	}
	return response{status: resp.StatusCode, body: data}, nil
}

func statusError(code int, body []byte) *StatusError {
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &StatusError{Code: code, Message: msg}
}

func (r response) expect(code int, out any) error {
	if r.status != code {
		return statusError(r.status, r.body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Submit enqueues input and returns the task id. An empty id is replaced
// by a fresh UUID so that a retried submission cannot create a second task.
func (c *Client) Submit(ctx context.Context, id string, input json.RawMessage) (string, error) {
	generated := id == ""
	if generated {
		id = uuid.NewString()
	}
	if len(input) == 0 {
		input = json.RawMessage("null")
	}

	attempts := 0
	resp, err := retry.Do(ctx, c.retry, func(ctx context.Context) (response, error) {
		attempts++
		return c.once(ctx, http.MethodPost, constants.RouteTask+"?id="+url.QueryEscape(id), input)
	})
	if err != nil {
		return "", err
	}

	// The first attempt may have landed even though its answer was lost.
	if generated && attempts > 1 && resp.status == http.StatusConflict {
		return id, nil
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := resp.expect(http.StatusCreated, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Pull waits for a task selected by policy. It keeps re-polling on 307 until
// a task arrives or ctx is done.
func (c *Client) Pull(ctx context.Context, policy queue.Policy) (queue.TaskInfo, error) {
	path := constants.RouteTask + "/" + url.PathEscape(string(policy))
	for {
		resp, err := c.roundTrip(ctx, http.MethodGet, path, nil)
		if err != nil {
			return queue.TaskInfo{}, err
		}
		if resp.status == http.StatusTemporaryRedirect {
			c.logger.Debug("pull expired, polling again", logger.Field{Key: "policy", Value: string(policy)})
			continue
		}

		var out struct {
			Task queue.TaskInfo `json:"task"`
		}
		if err := resp.expect(http.StatusOK, &out); err != nil {
			return queue.TaskInfo{}, err
		}
		return out.Task, nil
	}
}

// Report dispatches the output of task id.
func (c *Client) Report(ctx context.Context, id string, output json.RawMessage) error {
	if len(output) == 0 {
		output = json.RawMessage("null")
	}
	body, err := json.Marshal(struct {
		ID     string          `json:"id"`
		Output json.RawMessage `json:"output"`
	}{ID: id, Output: output})
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, constants.RouteTaskResult, body)
	if err != nil {
		return err
	}
	return resp.expect(http.StatusCreated, nil)
}

// WaitResult waits for the output of task id, re-polling on 307.
func (c *Client) WaitResult(ctx context.Context, id string) (json.RawMessage, error) {
	path := constants.RouteTask + "/" + url.PathEscape(id) + "/result"
	for {
		resp, err := c.roundTrip(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		if resp.status == http.StatusTemporaryRedirect {
			continue
		}

		var out struct {
			Output json.RawMessage `json:"output"`
		}
		if err := resp.expect(http.StatusOK, &out); err != nil {
			return nil, err
		}
		return out.Output, nil
	}
}

// Get returns the server's snapshot of task id.
func (c *Client) Get(ctx context.Context, id string) (queue.Snapshot, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, constants.RouteTask+"/"+url.PathEscape(id), nil)
	if err != nil {
		return queue.Snapshot{}, err
	}
	var snap queue.Snapshot
	if err := resp.expect(http.StatusOK, &snap); err != nil {
		return queue.Snapshot{}, err
	}
	return snap, nil
}

// Delete removes task id from the server.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.roundTrip(ctx, http.MethodDelete, constants.RouteTask+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return resp.expect(http.StatusOK, nil)
}

// Stats returns the server's queue counters.
func (c *Client) Stats(ctx context.Context) (queue.Stats, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, constants.RouteStats, nil)
	if err != nil {
		return queue.Stats{}, err
	}
	var st queue.Stats
	if err := resp.expect(http.StatusOK, &st); err != nil {
		return queue.Stats{}, err
	}
	return st, nil
}
