package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"teamboard/internal/api"
	"teamboard/internal/githubsync"
	"teamboard/internal/models"
	"teamboard/internal/notify"
	"teamboard/internal/secrets"
	"teamboard/internal/store"
	"teamboard/internal/workflow"
)

// stubIssueClient satisfies the sync engine without a network. Created
// issues get sequential numbers; fetched issues are synthesized unless
// seeded in issues.
type stubIssueClient struct {
	nextNumber int
	created    []githubsync.IssueRequest
	updated    []githubsync.IssueRequest
	issues     map[int]*githubsync.Issue
}

func (c *stubIssueClient) CreateIssue(ctx context.Context, token, scope string, req githubsync.IssueRequest) (*githubsync.Issue, error) {
	c.created = append(c.created, req)
	c.nextNumber++
	issue := &githubsync.Issue{Number: c.nextNumber, State: "open"}
	if req.Title != nil {
		issue.Title = *req.Title
	}
	return issue, nil
}

func (c *stubIssueClient) UpdateIssue(ctx context.Context, token, scope string, number int, req githubsync.IssueRequest) (*githubsync.Issue, error) {
	c.updated = append(c.updated, req)
	return &githubsync.Issue{Number: number, State: "open"}, nil
}

func (c *stubIssueClient) GetIssue(ctx context.Context, token, scope string, number int) (*githubsync.Issue, error) {
	if issue, ok := c.issues[number]; ok {
		return issue, nil
	}
	return &githubsync.Issue{Number: number, Title: "Stub issue", State: "open"}, nil
}

func (c *stubIssueClient) ListOpenIssues(ctx context.Context, token, scope string) ([]githubsync.Issue, error) {
	return nil, nil
}

func (c *stubIssueClient) ListLabels(ctx context.Context, token, scope string) ([]githubsync.LabelSpec, error) {
	return nil, nil
}

func (c *stubIssueClient) CreateLabel(ctx context.Context, token, scope string, label githubsync.LabelSpec) error {
	return nil
}

func (c *stubIssueClient) AddLabels(ctx context.Context, token, scope string, number int, names []string) error {
	return nil
}

func (c *stubIssueClient) RemoveLabel(ctx context.Context, token, scope string, number int, name string) error {
	return nil
}

var _ githubsync.IssueClient = (*stubIssueClient)(nil)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv(apiTokenEnvKey, "")

	st, err := store.Open(filepath.Join(t.TempDir(), "teamboard-test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	box, err := secrets.NewBox(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	wf := workflow.NewEngine(st)
	sync := githubsync.NewEngine(st, st, st, wf, &stubIssueClient{}, box, logger)

	return New("127.0.0.1:0", st, wf, sync, &notify.SlogDispatcher{Logger: logger}, logger)
}

func serveJSON(t *testing.T, srv *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)
	return w
}

func decodeErrorResponse(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func createServerMember(t *testing.T, srv *Server, teamID string, leader bool) string {
	t.Helper()
	w := serveJSON(t, srv, http.MethodPost, "/v1/members", api.MemberCreateRequest{
		TeamID:      teamID,
		DisplayName: "Member of " + teamID,
		IsLeader:    leader,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create member: %d (%s)", w.Code, w.Body.String())
	}
	var member models.Member
	if err := json.Unmarshal(w.Body.Bytes(), &member); err != nil {
		t.Fatalf("decode member: %v", err)
	}
	return member.ID
}

func createServerTask(t *testing.T, srv *Server, req api.TaskCreateRequest) api.TaskResponse {
	t.Helper()
	w := serveJSON(t, srv, http.MethodPost, "/v1/tasks", req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create task: %d (%s)", w.Code, w.Body.String())
	}
	var resp api.TaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return resp
}

func TestCreateTaskAndGet(t *testing.T) {
	srv := newTestServer(t)
	assignee := createServerMember(t, srv, "team-1", false)
	verifier := createServerMember(t, srv, "team-1", false)

	priority := "high"
	created := createServerTask(t, srv, api.TaskCreateRequest{
		TeamID:    "team-1",
		Title:     "  Ship the importer  ",
		Priority:  &priority,
		Assignees: []string{assignee},
		Verifiers: []string{verifier},
	})
	if created.ID == "" {
		t.Fatal("expected created task id")
	}
	if created.Title != "Ship the importer" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}
	if created.Status != models.StatusWaiting {
		t.Fatalf("new tasks start waiting, got %q", created.Status)
	}
	if len(created.Assignees) != 1 || created.Assignees[0].MemberID != assignee {
		t.Fatalf("unexpected assignees: %+v", created.Assignees)
	}
	if len(created.Verifiers) != 1 || created.Verifiers[0].MemberID != verifier {
		t.Fatalf("unexpected verifiers: %+v", created.Verifiers)
	}

	w := serveJSON(t, srv, http.MethodGet, "/v1/tasks/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d (%s)", w.Code, w.Body.String())
	}
	var shown api.TaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &shown); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if shown.ID != created.ID || shown.Priority != models.PriorityHigh {
		t.Fatalf("unexpected task: %+v", shown.Task)
	}

	w = serveJSON(t, srv, http.MethodGet, "/v1/tasks/tk-zzzzzz", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeTaskNotFound {
		t.Fatalf("expected error_code %d, got %d", ErrCodeTaskNotFound, errResp.ErrorCode)
	}

	w = serveJSON(t, srv, http.MethodGet, "/v1/tasks/not-an-id", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeInvalidID {
		t.Fatalf("expected error_code %d, got %d", ErrCodeInvalidID, errResp.ErrorCode)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	srv := newTestServer(t)
	badPriority := "blocker"

	cases := map[string]struct {
		req        api.TaskCreateRequest
		wantStatus int
		wantCode   int
	}{
		"missing title": {
			req:        api.TaskCreateRequest{TeamID: "team-1"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeMissingRequired,
		},
		"missing team": {
			req:        api.TaskCreateRequest{Title: "No home"},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeMissingRequired,
		},
		"invalid priority": {
			req:        api.TaskCreateRequest{TeamID: "team-1", Title: "Prio", Priority: &badPriority},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidPriority,
		},
		"unknown assignee": {
			req:        api.TaskCreateRequest{TeamID: "team-1", Title: "Who", Assignees: []string{"mb-zzzzzz"}},
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeMemberNotFound,
		},
		"malformed assignee id": {
			req:        api.TaskCreateRequest{TeamID: "team-1", Title: "Who", Assignees: []string{"bogus"}},
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeInvalidID,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := serveJSON(t, srv, http.MethodPost, "/v1/tasks", tc.req)
			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tc.wantStatus, w.Code, w.Body.String())
			}
			if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != tc.wantCode {
				t.Fatalf("expected error_code %d, got %d", tc.wantCode, errResp.ErrorCode)
			}
		})
	}
}

func TestUpdateTaskOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	created := createServerTask(t, srv, api.TaskCreateRequest{TeamID: "team-1", Title: "Original"})

	title := "Renamed"
	priority := "medium"
	w := serveJSON(t, srv, http.MethodPatch, "/v1/tasks/"+created.ID, api.TaskUpdateRequest{
		Title:    &title,
		Priority: &priority,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d (%s)", w.Code, w.Body.String())
	}
	var updated api.TaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if updated.Title != "Renamed" || updated.Priority != models.PriorityMedium {
		t.Fatalf("unexpected task after update: %+v", updated.Task)
	}

	empty := "   "
	w = serveJSON(t, srv, http.MethodPatch, "/v1/tasks/"+created.ID, api.TaskUpdateRequest{Title: &empty})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", w.Code)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeMissingRequired {
		t.Fatalf("expected error_code %d, got %d", ErrCodeMissingRequired, errResp.ErrorCode)
	}
}

func TestWorkflowCommandsOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	assignee := createServerMember(t, srv, "team-1", false)
	created := createServerTask(t, srv, api.TaskCreateRequest{
		TeamID:    "team-1",
		Title:     "One assignee, no verifiers",
		Assignees: []string{assignee},
	})

	w := serveJSON(t, srv, http.MethodPost, "/v1/tasks/"+created.ID+"/accept", api.CommandRequest{ActorID: assignee})
	if w.Code != http.StatusOK {
		t.Fatalf("accept: %d (%s)", w.Code, w.Body.String())
	}
	var tr api.TransitionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tr); err != nil {
		t.Fatalf("decode transition: %v", err)
	}
	if tr.From != "waiting" || tr.To != "in_progress" || !tr.StatusChanged {
		t.Fatalf("unexpected transition: %+v", tr)
	}

	// Accepting again is a precondition failure, not a repeatable no-op.
	w = serveJSON(t, srv, http.MethodPost, "/v1/tasks/"+created.ID+"/accept", api.CommandRequest{ActorID: assignee})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", w.Code, w.Body.String())
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodePrecondition {
		t.Fatalf("expected error_code %d, got %d", ErrCodePrecondition, errResp.ErrorCode)
	}

	w = serveJSON(t, srv, http.MethodPost, "/v1/tasks/"+created.ID+"/reject", api.CommandRequest{ActorID: assignee})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reject without reason, got %d", w.Code)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeMissingRequired {
		t.Fatalf("expected error_code %d, got %d", ErrCodeMissingRequired, errResp.ErrorCode)
	}

	w = serveJSON(t, srv, http.MethodPost, "/v1/tasks/"+created.ID+"/complete", api.CommandRequest{ActorID: assignee})
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d (%s)", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &tr); err != nil {
		t.Fatalf("decode transition: %v", err)
	}
	if tr.To != "done" {
		t.Fatalf("without verifiers completion goes straight to done, got %q", tr.To)
	}
}

func TestRoleRoutesOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	first := createServerMember(t, srv, "team-1", false)
	second := createServerMember(t, srv, "team-1", false)
	created := createServerTask(t, srv, api.TaskCreateRequest{
		TeamID:    "team-1",
		Title:     "Role shuffling",
		Assignees: []string{first},
	})

	w := serveJSON(t, srv, http.MethodPost, "/v1/tasks/"+created.ID+"/assignees", api.RoleRequest{MemberID: second})
	if w.Code != http.StatusOK {
		t.Fatalf("add assignee: %d (%s)", w.Code, w.Body.String())
	}
	var resp api.TaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if len(resp.Assignees) != 2 {
		t.Fatalf("expected two assignees, got %+v", resp.Assignees)
	}

	w = serveJSON(t, srv, http.MethodPost, "/v1/tasks/"+created.ID+"/watchers", api.RoleRequest{MemberID: second})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", w.Code)
	}

	w = serveJSON(t, srv, http.MethodDelete, "/v1/tasks/"+created.ID+"/assignees", api.RoleRequest{MemberID: first})
	if w.Code != http.StatusOK {
		t.Fatalf("remove assignee: %d (%s)", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if len(resp.Assignees) != 1 || resp.Assignees[0].MemberID != second {
		t.Fatalf("expected only the second assignee, got %+v", resp.Assignees)
	}
}

func TestListTasksOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	createServerTask(t, srv, api.TaskCreateRequest{TeamID: "team-1", Title: "First"})
	createServerTask(t, srv, api.TaskCreateRequest{TeamID: "team-1", Title: "Second"})
	createServerTask(t, srv, api.TaskCreateRequest{TeamID: "team-2", Title: "Elsewhere"})

	w := serveJSON(t, srv, http.MethodGet, "/v1/tasks?team_id=team-1&status=waiting", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d (%s)", w.Code, w.Body.String())
	}
	var tasks []api.TaskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected two team-1 tasks, got %d", len(tasks))
	}

	w = serveJSON(t, srv, http.MethodGet, "/v1/tasks?status=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", w.Code)
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeInvalidStatus {
		t.Fatalf("expected error_code %d, got %d", ErrCodeInvalidStatus, errResp.ErrorCode)
	}

	w = serveJSON(t, srv, http.MethodGet, "/v1/tasks?limit=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestDeleteTaskOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	created := createServerTask(t, srv, api.TaskCreateRequest{TeamID: "team-1", Title: "Doomed"})

	w := serveJSON(t, srv, http.MethodDelete, "/v1/tasks/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: %d (%s)", w.Code, w.Body.String())
	}

	w = serveJSON(t, srv, http.MethodGet, "/v1/tasks/"+created.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestCreateTaskTrailingJSONRejected(t *testing.T) {
	srv := newTestServer(t)

	payload := []byte(`{"team_id":"team-1","title":"first"}{"title":"second"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/tasks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeInvalidJSON {
		t.Fatalf("expected error_code %d, got %d", ErrCodeInvalidJSON, errResp.ErrorCode)
	}
}
