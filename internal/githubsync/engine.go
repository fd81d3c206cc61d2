package githubsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"teamboard/internal/models"
	"teamboard/internal/secrets"
	"teamboard/internal/store"
	"teamboard/internal/workflow"
)

// conflictWindow is the tolerance inside which a local and an external
// change to the same task are treated as conflicting rather than resolved
// by "latest wins".
const conflictWindow = 5 * time.Minute

// Engine orchestrates push (local→GitHub) and pull (GitHub→local via
// webhook) synchronization, including conflict detection, idempotent
// event replay, and the append-only sync log.
type Engine struct {
	tasks  store.TaskStore
	sync   store.SyncStore
	board  store.BoardStore
	wf     *workflow.Engine
	client IssueClient
	box    *secrets.Box
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine wires a sync engine. box may be nil when token encryption is
// not configured; stored tokens are then unusable and pushes fail with
// NoCredentialsError.
func NewEngine(tasks store.TaskStore, syncStore store.SyncStore, board store.BoardStore, wf *workflow.Engine, client IssueClient, box *secrets.Box, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tasks:  tasks,
		sync:   syncStore,
		board:  board,
		wf:     wf,
		client: client,
		box:    box,
		logger: logger,
		now:    time.Now,
	}
}

// PullResult reports what one webhook delivery did.
type PullResult struct {
	Scope    string        `json:"scope"`
	Action   WebhookAction `json:"action"`
	TaskID   string        `json:"task_id,omitempty"`
	Applied  bool          `json:"applied"`
	Conflict bool          `json:"conflict"`
	Message  string        `json:"message,omitempty"`
}

// Push mirrors a task's current state onto its linked issue: title, body,
// status/priority labels, and issue state (closed iff the task is DONE).
// Local state is already committed when Push runs; a failed call only
// flags the mapping ERROR.
func (e *Engine) Push(ctx context.Context, taskID string, trigger models.SyncTrigger) error {
	task, err := e.tasks.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return &workflow.NotFoundError{Kind: "task", ID: taskID}
	}
	mapping, err := e.sync.GetMappingByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return &NotLinkedError{TaskID: taskID}
	}

	token, err := e.scopeToken(ctx, mapping.Scope)
	if err != nil {
		return err
	}

	if err := e.pushIssue(ctx, token, task, mapping); err != nil {
		e.markPushFailed(ctx, task, mapping, trigger, err)
		return err
	}

	now := e.now().UTC()
	synced := models.SyncSynced
	if err := e.sync.UpdateMapping(ctx, mapping.ID, store.MappingUpdate{
		SyncStatus:     &synced,
		LastSyncedAt:   &now,
		LocalUpdatedAt: &now,
	}); err != nil {
		return err
	}

	return e.sync.AppendSyncLog(ctx, &models.SyncLogEntry{
		TaskID:    task.ID,
		Scope:     mapping.Scope,
		Direction: models.DirectionPush,
		Action:    models.ActionUpdate,
		Field:     "issue",
		NewValue:  string(task.Status),
		Result:    models.ResultSuccess,
		Trigger:   trigger,
		CreatedAt: now,
	})
}

func (e *Engine) pushIssue(ctx context.Context, token string, task *models.Task, mapping *models.ExternalMapping) error {
	state := "open"
	if task.Status == models.StatusDone {
		state = "closed"
	}
	req := IssueRequest{
		Title: &task.Title,
		Body:  &task.Description,
		State: &state,
	}
	issue, err := e.client.UpdateIssue(ctx, token, mapping.Scope, mapping.IssueNumber, req)
	if err != nil {
		return err
	}
	return e.syncIssueLabels(ctx, token, task, mapping, issue.LabelNames())
}

// syncIssueLabels removes stale status/priority labels and adds the
// desired ones. An issue never carries two labels of the same category.
func (e *Engine) syncIssueLabels(ctx context.Context, token string, task *models.Task, mapping *models.ExternalMapping, current []string) error {
	desired := desiredLabels(task)
	want := make(map[string]struct{}, len(desired))
	for _, name := range desired {
		want[name] = struct{}{}
	}

	have := make(map[string]struct{}, len(current))
	for _, name := range current {
		have[name] = struct{}{}
		if !IsStatusLabel(name) && !IsPriorityLabel(name) {
			continue
		}
		if _, ok := want[name]; ok {
			continue
		}
		if err := e.client.RemoveLabel(ctx, token, mapping.Scope, mapping.IssueNumber, name); err != nil {
			return err
		}
	}

	var missing []string
	for _, name := range desired {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return e.client.AddLabels(ctx, token, mapping.Scope, mapping.IssueNumber, missing)
}

func (e *Engine) markPushFailed(ctx context.Context, task *models.Task, mapping *models.ExternalMapping, trigger models.SyncTrigger, cause error) {
	errStatus := models.SyncError
	if err := e.sync.UpdateMapping(ctx, mapping.ID, store.MappingUpdate{SyncStatus: &errStatus}); err != nil {
		e.logger.Error("flag mapping after failed push", "task", task.ID, "error", err)
	}
	entry := &models.SyncLogEntry{
		TaskID:    task.ID,
		Scope:     mapping.Scope,
		Direction: models.DirectionPush,
		Action:    models.ActionUpdate,
		Result:    models.ResultFailed,
		Trigger:   trigger,
		Message:   cause.Error(),
		CreatedAt: e.now().UTC(),
	}
	if err := e.sync.AppendSyncLog(ctx, entry); err != nil {
		e.logger.Error("append sync log after failed push", "task", task.ID, "error", err)
	}
}

// CreateFromTask creates a GitHub issue for an unlinked task and links
// them. Requires usable credentials for the scope.
func (e *Engine) CreateFromTask(ctx context.Context, taskID, scope string, trigger models.SyncTrigger) (*models.ExternalMapping, error) {
	task, err := e.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &workflow.NotFoundError{Kind: "task", ID: taskID}
	}
	existing, err := e.sync.GetMappingByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &MappingExistsError{TaskID: taskID}
	}

	token, err := e.scopeToken(ctx, scope)
	if err != nil {
		return nil, err
	}
	if err := e.EnsureLabels(ctx, scope); err != nil {
		return nil, err
	}

	logins, err := e.assigneeLogins(ctx, taskID)
	if err != nil {
		return nil, err
	}

	labels := desiredLabels(task)
	issue, err := e.client.CreateIssue(ctx, token, scope, IssueRequest{
		Title:     &task.Title,
		Body:      &task.Description,
		Labels:    labels,
		Assignees: logins,
	})
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	mapping := &models.ExternalMapping{
		TaskID:         taskID,
		Scope:          scope,
		IssueNumber:    issue.Number,
		IssueURL:       issue.HTMLURL,
		SyncStatus:     models.SyncSynced,
		LastSyncedAt:   &now,
		LocalUpdatedAt: &now,
		CreatedAt:      now,
	}
	mapping.ID, err = store.GenerateMappingID(nil)
	if err != nil {
		return nil, err
	}
	if err := e.sync.CreateMapping(ctx, mapping); err != nil {
		return nil, err
	}

	if err := e.sync.AppendSyncLog(ctx, &models.SyncLogEntry{
		TaskID:    taskID,
		Scope:     scope,
		Direction: models.DirectionPush,
		Action:    models.ActionCreate,
		NewValue:  fmt.Sprintf("#%d", issue.Number),
		Result:    models.ResultSuccess,
		Trigger:   trigger,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Link binds an existing task to an existing issue without writing to
// either side.
func (e *Engine) Link(ctx context.Context, taskID, scope string, issueNumber int) (*models.ExternalMapping, error) {
	task, err := e.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &workflow.NotFoundError{Kind: "task", ID: taskID}
	}
	if existing, err := e.sync.GetMappingByTask(ctx, taskID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &MappingExistsError{TaskID: taskID}
	}
	if existing, err := e.sync.GetMappingByIssue(ctx, scope, issueNumber); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, &MappingExistsError{Scope: scope, IssueNumber: issueNumber}
	}

	token, err := e.scopeToken(ctx, scope)
	if err != nil {
		return nil, err
	}
	issue, err := e.client.GetIssue(ctx, token, scope, issueNumber)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	mapping := &models.ExternalMapping{
		TaskID:      taskID,
		Scope:       scope,
		IssueNumber: issue.Number,
		IssueURL:    issue.HTMLURL,
		SyncStatus:  models.SyncPending,
		CreatedAt:   now,
	}
	mapping.ID, err = store.GenerateMappingID(nil)
	if err != nil {
		return nil, err
	}
	if err := e.sync.CreateMapping(ctx, mapping); err != nil {
		return nil, err
	}

	if err := e.sync.AppendSyncLog(ctx, &models.SyncLogEntry{
		TaskID:    taskID,
		Scope:     scope,
		Direction: models.DirectionPush,
		Action:    models.ActionLink,
		NewValue:  fmt.Sprintf("#%d", issueNumber),
		Result:    models.ResultSuccess,
		Trigger:   models.TriggerManual,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Unlink removes a task's mapping. The issue itself is untouched.
func (e *Engine) Unlink(ctx context.Context, taskID string) error {
	mapping, err := e.sync.GetMappingByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return &NotLinkedError{TaskID: taskID}
	}
	if err := e.sync.DeleteMapping(ctx, mapping.ID); err != nil {
		return err
	}
	return e.sync.AppendSyncLog(ctx, &models.SyncLogEntry{
		TaskID:    taskID,
		Scope:     mapping.Scope,
		Direction: models.DirectionPush,
		Action:    models.ActionUnlink,
		OldValue:  fmt.Sprintf("#%d", mapping.IssueNumber),
		Result:    models.ResultSuccess,
		Trigger:   models.TriggerManual,
		CreatedAt: e.now().UTC(),
	})
}

// EnsureLabels creates any missing managed labels on the repository.
/// Idempotent: labels that already exist are skipped.
func (e *Engine) EnsureLabels(ctx context.Context, scope string) error {
	token, err := e.scopeToken(ctx, scope)
	if err != nil {
		return err
	}
	existing, err := e.client.ListLabels(ctx, token, scope)
	if err != nil {
		return err
	}
	have := make(map[string]struct{}, len(existing))
	for _, label := range existing {
		have[strings.ToLower(label.Name)] = struct{}{}
	}
	for _, label := range ManagedLabels() {
		if _, ok := have[strings.ToLower(label.Name)]; ok {
			continue
		}
		if err := e.client.CreateLabel(ctx, token, scope, label); err != nil {
			return err
		}
	}
	return nil
}

// ResolveConflict settles a CONFLICT mapping. keepLocal re-pushes the
// local state; otherwise the already-applied external state stands and
// the mapping is stamped back to SYNCED.
func (e *Engine) ResolveConflict(ctx context.Context, taskID string, keepLocal bool) error {
	mapping, err := e.sync.GetMappingByTask(ctx, taskID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return &NotLinkedError{TaskID: taskID}
	}
	if mapping.SyncStatus != models.SyncConflict {
		return fmt.Errorf("mapping for task %s is %s, not in conflict", taskID, mapping.SyncStatus)
	}

	if keepLocal {
		return e.Push(ctx, taskID, models.TriggerManual)
	}

	now := e.now().UTC()
	synced := models.SyncSynced
	if err := e.sync.UpdateMapping(ctx, mapping.ID, store.MappingUpdate{
		SyncStatus:   &synced,
		LastSyncedAt: &now,
	}); err != nil {
		return err
	}
	return e.sync.AppendSyncLog(ctx, &models.SyncLogEntry{
		TaskID:    taskID,
		Scope:     mapping.Scope,
		Direction: models.DirectionPull,
		Action:    models.ActionUpdate,
		Field:     "conflict_resolution",
		NewValue:  "keep_external",
		Result:    models.ResultSuccess,
		Trigger:   models.TriggerManual,
		CreatedAt: now,
	})
}

func (e *Engine) scopeToken(ctx context.Context, scope string) (string, error) {
	cred, err := e.sync.GetScopeCredential(ctx, scope)
	if err != nil {
		return "", err
	}
	if cred == nil || len(cred.TokenSealed) == 0 || e.box == nil {
		return "", &NoCredentialsError{Scope: scope}
	}
	token, err := e.box.Open(cred.TokenSealed)
	if err != nil {
		return "", fmt.Errorf("unseal token for %s: %w", scope, err)
	}
	return token, nil
}

func (e *Engine) assigneeLogins(ctx context.Context, taskID string) ([]string, error) {
	assignees, err := e.tasks.ListAssignees(ctx, taskID)
	if err != nil {
		return nil, err
	}
	var logins []string
	for _, a := range assignees {
		login, err := e.sync.GithubLoginForMember(ctx, a.MemberID)
		if err != nil {
			return nil, err
		}
		if login != "" {
			logins = append(logins, login)
		}
	}
	return logins, nil
}
