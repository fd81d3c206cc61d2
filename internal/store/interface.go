package store

import (
	"context"
	"time"

	"teamboard/internal/models"
)

// TaskStore abstracts task and role-row storage.
type TaskStore interface {
	TaskExists(id string) (bool, error)
	CreateTask(ctx context.Context, task *models.Task, assigneeIDs, verifierIDs []string) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, id string, update TaskUpdate) error
	SetStatus(ctx context.Context, id string, from, to models.WorkflowStatus, at time.Time) (bool, error)
	ListTasks(ctx context.Context, filter ListFilter) ([]models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	AddAssignee(ctx context.Context, taskID, memberID string) error
	RemoveAssignee(ctx context.Context, taskID, memberID string) error
	AddVerifier(ctx context.Context, taskID, memberID string) error
	RemoveVerifier(ctx context.Context, taskID, memberID string) error
	ListAssignees(ctx context.Context, taskID string) ([]models.Assignee, error)
	ListVerifiers(ctx context.Context, taskID string) ([]models.Verifier, error)
	MarkAccepted(ctx context.Context, taskID, memberID string) (bool, error)
	MarkCompleted(ctx context.Context, taskID, memberID string) (bool, error)
	MarkApproved(ctx context.Context, taskID, memberID string) (bool, error)
	RecordVerifierRejection(ctx context.Context, taskID, memberID, reason string) (bool, error)
	ResetAssigneesCompleted(ctx context.Context, taskID string) error
	ResetVerifiersApproved(ctx context.Context, taskID string) error
	ForceCompleteRoles(ctx context.Context, taskID string) error
	AllAssigneesAccepted(ctx context.Context, taskID string) (bool, error)
	AllAssigneesCompleted(ctx context.Context, taskID string) (bool, error)
	AllVerifiersApproved(ctx context.Context, taskID string) (bool, error)
	CountVerifiers(ctx context.Context, taskID string) (int, error)

	GetMember(ctx context.Context, id string) (*models.Member, error)
}

// SyncStore abstracts mapping, sync log and credential storage.
type SyncStore interface {
	CreateMapping(ctx context.Context, m *models.ExternalMapping) error
	GetMappingByTask(ctx context.Context, taskID string) (*models.ExternalMapping, error)
	GetMappingByIssue(ctx context.Context, scope string, issueNumber int) (*models.ExternalMapping, error)
	UpdateMapping(ctx context.Context, id string, update MappingUpdate) error
	DeleteMapping(ctx context.Context, id string) error
	AppendSyncLog(ctx context.Context, entry *models.SyncLogEntry) error
	HasDelivery(ctx context.Context, deliveryID string) (bool, error)
	ListSyncLog(ctx context.Context, taskID string, limit int) ([]models.SyncLogEntry, error)
	GithubLoginForMember(ctx context.Context, memberID string) (string, error)
	MemberForGithubLogin(ctx context.Context, githubLogin string) (string, error)
	UpsertUserMapping(ctx context.Context, memberID, githubLogin string) error
	GetScopeCredential(ctx context.Context, scope string) (*models.ScopeCredential, error)
	UpsertScopeCredential(ctx context.Context, cred *models.ScopeCredential) error
}

// BoardStore abstracts column and prefix-rule storage for the router.
type BoardStore interface {
	CreateColumn(ctx context.Context, col *models.Column) error
	GetColumn(ctx context.Context, id string) (*models.Column, error)
	GetDefaultColumn(ctx context.Context, teamID string) (*models.Column, error)
	ListColumns(ctx context.Context, teamID string) ([]models.Column, error)
	CreatePrefixRule(ctx context.Context, rule *models.ColumnPrefixRule) error
	ListPrefixRules(ctx context.Context, teamID string) ([]models.ColumnPrefixRule, error)
}

var (
	_ TaskStore  = (*Store)(nil)
	_ SyncStore  = (*Store)(nil)
	_ BoardStore = (*Store)(nil)
)
