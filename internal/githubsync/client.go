package githubsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultAPIBaseURL  = "https://api.github.com"
	defaultHTTPTimeout = 15 * time.Second
	issuesPageSize     = 100
)

// Issue is the subset of the GitHub issue wire format this engine reads.
type Issue struct {
	Number    int         `json:"number"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	State     string      `json:"state"`
	HTMLURL   string      `json:"html_url"`
	Labels    []IssueLabel `json:"labels"`
	Assignees []IssueUser  `json:"assignees"`
	Milestone *Milestone   `json:"milestone"`
}

// IssueLabel is a label attached to an issue.
type IssueLabel struct {
	Name string `json:"name"`
}

// IssueUser is a GitHub account reference.
type IssueUser struct {
	Login string `json:"login"`
}

// Milestone carries the due date this engine mirrors into tasks.
type Milestone struct {
	DueOn string `json:"due_on"`
}

// LabelNames flattens an issue's labels to their names.
func (i *Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels))
	for _, label := range i.Labels {
		names = append(names, label.Name)
	}
	return names
}

// IssueRequest is the subset of fields this engine writes.
type IssueRequest struct {
	Title     *string  `json:"title,omitempty"`
	Body      *string  `json:"body,omitempty"`
	State     *string  `json:"state,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
}

// IssueClient is the outbound GitHub surface the sync engine needs.
// *Client implements it against the real REST API; tests substitute a
// fake.
type IssueClient interface {
	CreateIssue(ctx context.Context, token, scope string, req IssueRequest) (*Issue, error)
	UpdateIssue(ctx context.Context, token, scope string, number int, req IssueRequest) (*Issue, error)
	GetIssue(ctx context.Context, token, scope string, number int) (*Issue, error)
	ListOpenIssues(ctx context.Context, token, scope string) ([]Issue, error)
	ListLabels(ctx context.Context, token, scope string) ([]LabelSpec, error)
	CreateLabel(ctx context.Context, token, scope string, label LabelSpec) error
	AddLabels(ctx context.Context, token, scope string, number int, names []string) error
	RemoveLabel(ctx context.Context, token, scope string, number int, name string) error
}

// Client is a minimal GitHub REST v3 client covering the calls in
// IssueClient. Tokens are passed per call because each repository scope
// carries its own credentials.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a GitHub API client. baseURL overrides the public API
// endpoint; pass "" for the default.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (c *Client) CreateIssue(ctx context.Context, token, scope string, req IssueRequest) (*Issue, error) {
	var issue Issue
	err := c.do(ctx, token, http.MethodPost, "/repos/"+scope+"/issues", nil, req, &issue)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) UpdateIssue(ctx context.Context, token, scope string, number int, req IssueRequest) (*Issue, error) {
	var issue Issue
	err := c.do(ctx, token, http.MethodPatch, issuePath(scope, number), nil, req, &issue)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *Client) GetIssue(ctx context.Context, token, scope string, number int) (*Issue, error) {
	var issue Issue
	err := c.do(ctx, token, http.MethodGet, issuePath(scope, number), nil, nil, &issue)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListOpenIssues pages through every open issue in a repository.
func (c *Client) ListOpenIssues(ctx context.Context, token, scope string) ([]Issue, error) {
	var all []Issue
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("state", "open")
		query.Set("per_page", strconv.Itoa(issuesPageSize))
		query.Set("page", strconv.Itoa(page))

		var batch []Issue
		if err := c.do(ctx, token, http.MethodGet, "/repos/"+scope+"/issues", query, nil, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < issuesPageSize {
			return all, nil
		}
	}
}

func (c *Client) ListLabels(ctx context.Context, token, scope string) ([]LabelSpec, error) {
	var labels []struct {
		Name        string `json:"name"`
		Color       string `json:"color"`
		Description string `json:"description"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/repos/"+scope+"/labels", nil, nil, &labels); err != nil {
		return nil, err
	}
	out := make([]LabelSpec, 0, len(labels))
	for _, label := range labels {
		out = append(out, LabelSpec{Name: label.Name, Color: label.Color, Description: label.Description})
	}
	return out, nil
}

func (c *Client) CreateLabel(ctx context.Context, token, scope string, label LabelSpec) error {
	payload := map[string]string{
		"name":        label.Name,
		"color":       label.Color,
		"description": label.Description,
	}
	return c.do(ctx, token, http.MethodPost, "/repos/"+scope+"/labels", nil, payload, nil)
}

func (c *Client) AddLabels(ctx context.Context, token, scope string, number int, names []string) error {
	payload := map[string][]string{"labels": names}
	return c.do(ctx, token, http.MethodPost, issuePath(scope, number)+"/labels", nil, payload, nil)
}

func (c *Client) RemoveLabel(ctx context.Context, token, scope string, number int, name string) error {
	err := c.do(ctx, token, http.MethodDelete, issuePath(scope, number)+"/labels/"+url.PathEscape(name), nil, nil, nil)
	// Removing a label the issue does not carry is a no-op.
	var extErr *ExternalError
	if errors.As(err, &extErr) && extErr.Status == http.StatusNotFound {
		return nil
	}
	return err
}

func issuePath(scope string, number int) string {
	return fmt.Sprintf("/repos/%s/issues/%d", scope, number)
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out any) error {
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
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ExternalError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &ExternalError{Op: method + " " + path, Status: resp.StatusCode, Err: decodeGithubError(resp)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeGithubError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
		return fmt.Errorf("%s", payload.Message)
	}
	return fmt.Errorf("github api error: %s", resp.Status)
}

var _ IssueClient = (*Client)(nil)
