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

	"teamboard/internal/githubsync"
	"teamboard/internal/models"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	httpTimeoutEnvKey  = "TEAMBOARD_HTTP_TIMEOUT"
	apiTokenEnvKey     = "TEAMBOARD_API_TOKEN"
)

// Client is a simple HTTP client for the teamboard API, used by the CLI.
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

func (c *Client) GetTask(ctx context.Context, id string) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPatch, "/v1/tasks/"+url.PathEscape(id), nil, req, &resp)
	return resp, err
}

func (c *Client) ListTasks(ctx context.Context, query url.Values) ([]TaskResponse, error) {
	var resp []TaskResponse
	err := c.do(ctx, http.MethodGet, "/v1/tasks", query, nil, &resp)
	return resp, err
}

// Command issues a workflow command (accept, complete, approve, reject,
// decline, restart, force-complete, recalculate).
func (c *Client) Command(ctx context.Context, id, command string, req CommandRequest) (TransitionResponse, error) {
	var resp TransitionResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/"+url.PathEscape(command), nil, req, &resp)
	return resp, err
}

// AddRole attaches a member to a task as "assignees" or "verifiers".
func (c *Client) AddRole(ctx context.Context, id, role string, req RoleRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/"+url.PathEscape(role), nil, req, &resp)
	return resp, err
}

// RemoveRole detaches a member from a task role.
func (c *Client) RemoveRole(ctx context.Context, id, role string, req RoleRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id)+"/"+url.PathEscape(role), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/tasks/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) CreateMember(ctx context.Context, req MemberCreateRequest) (models.Member, error) {
	var resp models.Member
	err := c.do(ctx, http.MethodPost, "/v1/members", nil, req, &resp)
	return resp, err
}

func (c *Client) CreateColumn(ctx context.Context, req ColumnCreateRequest) (models.Column, error) {
	var resp models.Column
	err := c.do(ctx, http.MethodPost, "/v1/columns", nil, req, &resp)
	return resp, err
}

func (c *Client) ListColumns(ctx context.Context, teamID string) ([]models.Column, error) {
	var resp []models.Column
	query := url.Values{"team_id": []string{teamID}}
	err := c.do(ctx, http.MethodGet, "/v1/columns", query, nil, &resp)
	return resp, err
}

func (c *Client) Link(ctx context.Context, id string, req LinkRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/link", nil, req, &resp)
	return resp, err
}

func (c *Client) Unlink(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/unlink", nil, nil, nil)
}

func (c *Client) CreateIssue(ctx context.Context, id string, req CreateIssueRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/create-issue", nil, req, &resp)
	return resp, err
}

func (c *Client) Sync(ctx context.Context, id string) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/sync", nil, nil, &resp)
	return resp, err
}

func (c *Client) ResolveConflict(ctx context.Context, id string, req ResolveConflictRequest) (TaskResponse, error) {
	var resp TaskResponse
	err := c.do(ctx, http.MethodPost, "/v1/tasks/"+url.PathEscape(id)+"/resolve-conflict", nil, req, &resp)
	return resp, err
}

func (c *Client) SyncLog(ctx context.Context, id string) ([]models.SyncLogEntry, error) {
	var resp []models.SyncLogEntry
	err := c.do(ctx, http.MethodGet, "/v1/tasks/"+url.PathEscape(id)+"/sync-log", nil, nil, &resp)
	return resp, err
}

func (c *Client) ImportAll(ctx context.Context, req BulkSyncRequest) (githubsync.BulkResult, error) {
	var resp githubsync.BulkResult
	err := c.do(ctx, http.MethodPost, "/v1/sync/import", nil, req, &resp)
	return resp, err
}

func (c *Client) ExportAll(ctx context.Context, req BulkSyncRequest) (githubsync.BulkResult, error) {
	var resp githubsync.BulkResult
	err := c.do(ctx, http.MethodPost, "/v1/sync/export", nil, req, &resp)
	return resp, err
}

func (c *Client) PutScopeCredential(ctx context.Context, req ScopeCredentialRequest) error {
	return c.do(ctx, http.MethodPut, "/v1/sync/scopes", nil, req, nil)
}

func (c *Client) PutUserMapping(ctx context.Context, req UserMappingRequest) error {
	return c.do(ctx, http.MethodPut, "/v1/sync/users", nil, req, nil)
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
	return fmt.Errorf("api error: %s", resp.Status)
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	raw := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if raw == "" {
		return defaultHTTPTimeout
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	return defaultHTTPTimeout
}
