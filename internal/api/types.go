package api

import (
	"teamboard/internal/models"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// TaskCreateRequest defines the payload for creating a task.
type TaskCreateRequest struct {
	TeamID      string   `json:"team_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	ColumnID    *string  `json:"column_id,omitempty"`
	CreatorID   string   `json:"creator_id,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Assignees   []string `json:"assignees,omitempty"`
	Verifiers   []string `json:"verifiers,omitempty"`
}

// TaskUpdateRequest defines the payload for updating task content fields.
// Workflow status is never set here; it moves only through commands.
type TaskUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	ColumnID    *string `json:"column_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// CommandRequest is the payload for workflow commands (accept, complete,
// approve, reject, decline, restart, force-complete, recalculate).
type CommandRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// RoleRequest adds or removes an assignee/verifier.
type RoleRequest struct {
	MemberID string `json:"member_id"`
}

// TaskResponse wraps a task with its role rows and mapping.
type TaskResponse struct {
	models.Task
	Assignees []models.Assignee       `json:"assignees"`
	Verifiers []models.Verifier       `json:"verifiers"`
	Mapping   *models.ExternalMapping `json:"mapping,omitempty"`
}

// TransitionResponse reports a workflow command's outcome.
type TransitionResponse struct {
	Task          TaskResponse `json:"task"`
	From          string       `json:"from"`
	To            string       `json:"to"`
	StatusChanged bool         `json:"status_changed"`
}

// LinkRequest binds a task to an existing issue.
type LinkRequest struct {
	Scope       string `json:"scope"`
	IssueNumber int    `json:"issue_number"`
}

// CreateIssueRequest creates a GitHub issue from a task.
type CreateIssueRequest struct {
	Scope   string `json:"scope"`
	ActorID string `json:"actor_id,omitempty"`
}

// ResolveConflictRequest settles a conflicted mapping.
type ResolveConflictRequest struct {
	Resolution string `json:"resolution"` // keep_local | keep_external
}

// BulkSyncRequest names the scope for import-all/export-all.
type BulkSyncRequest struct {
	Scope string `json:"scope"`
}

// ScopeCredentialRequest stores GitHub access for a repository scope.
type ScopeCredentialRequest struct {
	Scope         string `json:"scope"`
	TeamID        string `json:"team_id"`
	Token         string `json:"token,omitempty"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
	SyncEnabled   *bool  `json:"sync_enabled,omitempty"`
}

// UserMappingRequest binds a member to a GitHub login.
type UserMappingRequest struct {
	MemberID    string `json:"member_id"`
	GithubLogin string `json:"github_login"`
}

// MemberCreateRequest registers a team member.
type MemberCreateRequest struct {
	TeamID      string `json:"team_id"`
	DisplayName string `json:"display_name"`
	IsLeader    bool   `json:"is_leader"`
}

// ColumnCreateRequest adds a board column.
type ColumnCreateRequest struct {
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Position  int    `json:"position"`
}

// InfoResponse is the response from GET /v1/info.
type InfoResponse struct {
	SchemaVersion int            `json:"schema_version"`
	TaskCounts    map[string]int `json:"task_counts"`
	TotalTasks    int            `json:"total_tasks"`
}

// WebhookResponse acknowledges an inbound webhook delivery.
type WebhookResponse struct {
	Duplicate bool   `json:"duplicate,omitempty"`
	Applied   bool   `json:"applied"`
	Conflict  bool   `json:"conflict,omitempty"`
	TaskID    string `json:"task_id,omitempty"`
	Message   string `json:"message,omitempty"`
}
