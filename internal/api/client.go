package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "NOVATASK_HTTP_TIMEOUT"
	apiTokenEnvKey     = "NOVATASK_API_TOKEN"
)

// Client is a simple HTTP client for the novatask API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/v1/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) BatchCreate(ctx context.Context, req []TaskCreateRequest) ([]TaskResponse, error) {
	var resp []TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/batch", nil, req, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPatch, taskPath(id), nil, req, &resp)
	return resp, err
}

func (c *Client) ListTasks(ctx context.Context, query url.Values) ([]TaskResponse, error) {
	var resp []TaskResponse
	err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &resp)
	return resp, err
}

// CompleteTask moves a pending task to completed on behalf of actorID.
func (c *Client) CompleteTask(ctx context.Context, id, actorID string) (TaskResponse, error) {
	return c.transition(ctx, id, "complete", actorID)
}

// VerifyTask moves a completed task to verified on behalf of actorID.
func (c *Client) VerifyTask(ctx context.Context, id, actorID string) (TaskResponse, error) {
	return c.transition(ctx, id, "verify", actorID)
}

// RejectTask sends a completed task back to pending on behalf of actorID.
func (c *Client) RejectTask(ctx context.Context, id, actorID string) (TaskResponse, error) {
	return c.transition(ctx, id, "reject", actorID)
}

func (c *Client) transition(ctx context.Context, id, action, actorID string) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, taskPath(id)+"/"+action, nil, TransitionRequest{ActorID: actorID}, &resp)
	return resp, err
}

func (c *Client) Board(ctx context.Context, query url.Values) (BoardResponse, error) {
	var resp BoardResponse
	err := c.do(ctx, http.MethodGet, "/v1/board", query, nil, &resp)
	return resp, err
}

func (c *Client) Stats(ctx context.Context) (StatsResponse, error) {
	var resp StatsResponse
	err := c.do(ctx, http.MethodGet, "/v1/stats", nil, nil, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, name string) (LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/v1/login", nil, LoginRequest{Name: name}, &resp)
	return resp, err
}

func (c *Client) ListUsers(ctx context.Context) ([]UserResponse, error) {
	var resp []UserResponse
	err := c.do(ctx, http.MethodGet, "/v1/users", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetUser(ctx context.Context, id string) (UserResponse, error) {
	var resp UserResponse
	err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

// UploadImage streams raw image bytes and attaches them to a task.
func (c *Client) UploadImage(ctx context.Context, id string, body io.Reader, contentType string) (ImageUploadResponse, error) {
	var resp ImageUploadResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+taskPath(id)+"/images", body)
	if err != nil {
		return resp, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.setAuthHeader(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

// OpenBlob returns the stored bytes for an image key. The caller closes it.
func (c *Client) OpenBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/blobs/"+key, nil)
	if err != nil {
		return nil, err
	}
	c.setAuthHeader(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func taskPath(id string) string {
	return "/v1/tasks/" + url.PathEscape(id)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
