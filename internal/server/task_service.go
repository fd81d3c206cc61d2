package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"teamboard/internal/api"
	"teamboard/internal/githubsync"
	"teamboard/internal/models"
	"teamboard/internal/notify"
	"teamboard/internal/store"
	"teamboard/internal/workflow"
)

// TaskService sits between the HTTP handlers and the engines. It owns
// request validation, response assembly, and the post-commit follow-ups a
// successful local mutation triggers: notification dispatch and, for
// linked tasks, an automatic push.
type TaskService struct {
	store      *store.Store
	wf         *workflow.Engine
	sync       *githubsync.Engine
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewTaskService creates the service. sync may be nil when GitHub
// synchronization is not configured.
func NewTaskService(st *store.Store, wf *workflow.Engine, sync *githubsync.Engine, dispatcher notify.Dispatcher, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatcher == nil {
		dispatcher = &notify.SlogDispatcher{Logger: logger}
	}
	return &TaskService{
		store:      st,
		wf:         wf,
		sync:       sync,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Create inserts a new task in WAITING with its assignee and verifier sets.
func (t *TaskService) Create(ctx context.Context, req api.TaskCreateRequest) (*api.TaskResponse, error) {
	teamID := strings.TrimSpace(req.TeamID)
	if teamID == "" {
		return nil, badRequestCode(fmt.Errorf("team_id is required"), ErrCodeMissingRequired)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, badRequestCode(fmt.Errorf("title is required"), ErrCodeMissingRequired)
	}

	task := &models.Task{
		TeamID: teamID,
		Title:  title,
		Status: models.StatusWaiting,
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		priority, err := normalizePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}
	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}
	if req.ColumnID != nil && *req.ColumnID != "" {
		column, err := t.store.GetColumn(ctx, *req.ColumnID)
		if err != nil {
			return nil, storeFailure(err)
		}
		if column == nil {
			return nil, notFoundCode(fmt.Errorf("column not found: %s", *req.ColumnID), ErrCodeColumnNotFound)
		}
		task.ColumnID = column.ID
	}
	if req.CreatorID != "" {
		creatorID, err := requireMemberID(req.CreatorID)
		if err != nil {
			return nil, err
		}
		task.CreatorID = creatorID
	}

	assignees, err := t.memberIDs(ctx, req.Assignees)
	if err != nil {
		return nil, err
	}
	verifiers, err := t.memberIDs(ctx, req.Verifiers)
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.ID, err = store.GenerateTaskID(t.store.TaskExists)
	if err != nil {
		return nil, storeFailure(err)
	}

	if err := t.store.CreateTask(ctx, task, assignees, verifiers); err != nil {
		return nil, storeFailure(err)
	}
	return t.taskResponse(ctx, task)
}

// Get returns a task with its role rows and mapping.
func (t *TaskService) Get(ctx context.Context, id string) (*api.TaskResponse, error) {
	task, err := t.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.taskResponse(ctx, task)
}

// List returns tasks matching the filter.
func (t *TaskService) List(ctx context.Context, filter store.ListFilter) ([]api.TaskResponse, error) {
	tasks, err := t.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, storeFailure(err)
	}
	responses := make([]api.TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp, err := t.taskResponse(ctx, &tasks[i])
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// Update changes content fields. Workflow status is out of reach here;
// it only moves through commands.
func (t *TaskService) Update(ctx context.Context, id string, req api.TaskUpdateRequest) (*api.TaskResponse, error) {
	task, err := t.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	update := store.TaskUpdate{UpdatedAt: t.now().UTC()}
	changed := false

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, badRequestCode(fmt.Errorf("title cannot be empty"), ErrCodeMissingRequired)
		}
		update.Title = &title
		changed = true
	}
	if req.Description != nil {
		update.Description = req.Description
		changed = true
	}
	if req.Priority != nil {
		priority, err := normalizePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		update.Priority = &priority
		changed = true
	}
	if req.ColumnID != nil {
		if *req.ColumnID != "" {
			column, err := t.store.GetColumn(ctx, *req.ColumnID)
			if err != nil {
				return nil, storeFailure(err)
			}
			if column == nil {
				return nil, notFoundCode(fmt.Errorf("column not found: %s", *req.ColumnID), ErrCodeColumnNotFound)
			}
		}
		update.ColumnID = req.ColumnID
		changed = true
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			update.ClearDueDate = true
		} else {
			due, err := parseFlexibleTime(*req.DueDate)
			if err != nil {
				return nil, err
			}
			update.DueDate = &due
		}
		changed = true
	}

	if changed {
		if err := t.store.UpdateTask(ctx, task.ID, update); err != nil {
			return nil, storeFailure(err)
		}
		t.afterLocalChange(ctx, task.ID)
	}
	return t.Get(ctx, task.ID)
}

// Delete removes a task, its role rows, and its mapping.
func (t *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := t.loadTask(ctx, id); err != nil {
		return err
	}
	if err := t.store.DeleteTask(ctx, id); err != nil {
		return storeFailure(err)
	}
	return nil
}

// Command runs one workflow command and performs the post-transition
// follow-ups.
func (t *TaskService) Command(ctx context.Context, id, command string, req api.CommandRequest) (*api.TransitionResponse, error) {
	actorID := strings.TrimSpace(req.ActorID)
	if command != "recalculate" {
		var err error
		if actorID, err = requireMemberID(actorID); err != nil {
			return nil, err
		}
	}
	reason := strings.TrimSpace(req.Reason)

	var tr *workflow.Transition
	var err error
	switch command {
	case "accept":
		tr, err = t.wf.Accept(ctx, id, actorID)
	case "complete":
		tr, err = t.wf.Complete(ctx, id, actorID)
	case "approve":
		tr, err = t.wf.Approve(ctx, id, actorID)
	case "reject":
		if reason == "" {
			return nil, badRequestCode(fmt.Errorf("reject requires a reason"), ErrCodeMissingRequired)
		}
		tr, err = t.wf.Reject(ctx, id, actorID, reason)
	case "decline":
		tr, err = t.wf.Decline(ctx, id, actorID, reason)
	case "restart":
		tr, err = t.wf.Restart(ctx, id, actorID)
	case "force-complete":
		tr, err = t.wf.ForceComplete(ctx, id, actorID)
	case "recalculate":
		tr, err = t.wf.Recalculate(ctx, id)
	default:
		return nil, badRequestCode(fmt.Errorf("unknown command: %s", command), ErrCodeInvalidCommand)
	}
	if err != nil {
		return nil, mapDomainError(err)
	}

	t.dispatcher.Dispatch(ctx, tr.Notifications)
	if tr.StatusChanged() {
		t.afterLocalChange(ctx, id)
	}

	resp, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &api.TransitionResponse{
		Task:          *resp,
		From:          string(tr.From),
		To:            string(tr.To),
		StatusChanged: tr.StatusChanged(),
	}, nil
}

// AddRole attaches a member as assignee or verifier and recomputes the
// workflow status from the new consensus set.
func (t *TaskService) AddRole(ctx context.Context, taskID, role, memberID string) (*api.TaskResponse, error) {
	memberID, err := requireMemberID(memberID)
	if err != nil {
		return nil, err
	}
	if _, err := t.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	member, err := t.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if member == nil {
		return nil, notFoundCode(fmt.Errorf("member not found: %s", memberID), ErrCodeMemberNotFound)
	}

	switch role {
	case "assignees":
		err = t.store.AddAssignee(ctx, taskID, memberID)
	case "verifiers":
		err = t.store.AddVerifier(ctx, taskID, memberID)
	default:
		return nil, badRequestCode(fmt.Errorf("unknown role: %s", role), ErrCodeInvalidArgument)
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return t.recalculateAfterRoleChange(ctx, taskID)
}

// RemoveRole detaches a member from a role and recomputes consensus: the
// remaining set may now be unanimous.
func (t *TaskService) RemoveRole(ctx context.Context, taskID, role, memberID string) (*api.TaskResponse, error) {
	memberID, err := requireMemberID(memberID)
	if err != nil {
		return nil, err
	}
	if _, err := t.loadTask(ctx, taskID); err != nil {
		return nil, err
	}

	switch role {
	case "assignees":
		err = t.store.RemoveAssignee(ctx, taskID, memberID)
	case "verifiers":
		err = t.store.RemoveVerifier(ctx, taskID, memberID)
	default:
		return nil, badRequestCode(fmt.Errorf("unknown role: %s", role), ErrCodeInvalidArgument)
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return t.recalculateAfterRoleChange(ctx, taskID)
}

func (t *TaskService) recalculateAfterRoleChange(ctx context.Context, taskID string) (*api.TaskResponse, error) {
	tr, err := t.wf.Recalculate(ctx, taskID)
	if err != nil {
		return nil, mapDomainError(err)
	}
	t.dispatcher.Dispatch(ctx, tr.Notifications)
	t.afterLocalChange(ctx, taskID)
	return t.Get(ctx, taskID)
}

// afterLocalChange stamps the mapping's local-change clock and pushes the
// new state outward. The local mutation is already committed; a failed
// push only flags the mapping, it never propagates to the caller.
func (t *TaskService) afterLocalChange(ctx context.Context, taskID string) {
	mapping, err := t.store.GetMappingByTask(ctx, taskID)
	if err != nil {
		t.logger.Error("load mapping after local change", "task", taskID, "error", err)
		return
	}
	if mapping == nil {
		return
	}

	now := t.now().UTC()
	if err := t.store.UpdateMapping(ctx, mapping.ID, store.MappingUpdate{
		LocalUpdatedAt: &now,
	}); err != nil {
		t.logger.Error("stamp local change", "task", taskID, "error", err)
	}

	if t.sync == nil {
		return
	}
	if err := t.sync.Push(ctx, taskID, models.TriggerAuto); err != nil {
		t.logger.Warn("auto push failed", "task", taskID, "error", err)
	}
}

func (t *TaskService) loadTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := t.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if task == nil {
		return nil, notFoundCode(fmt.Errorf("task not found: %s", id), ErrCodeTaskNotFound)
	}
	return task, nil
}

func (t *TaskService) memberIDs(ctx context.Context, raw []string) ([]string, error) {
	ids := make([]string, 0, len(raw))
	for _, value := range raw {
		id, err := requireMemberID(value)
		if err != nil {
			return nil, err
		}
		member, err := t.store.GetMember(ctx, id)
		if err != nil {
			return nil, storeFailure(err)
		}
		if member == nil {
			return nil, notFoundCode(fmt.Errorf("member not found: %s", id), ErrCodeMemberNotFound)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (t *TaskService) taskResponse(ctx context.Context, task *models.Task) (*api.TaskResponse, error) {
	assignees, err := t.store.ListAssignees(ctx, task.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	verifiers, err := t.store.ListVerifiers(ctx, task.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	mapping, err := t.store.GetMappingByTask(ctx, task.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return &api.TaskResponse{
		Task:      *task,
		Assignees: assignees,
		Verifiers: verifiers,
		Mapping:   mapping,
	}, nil
}

// mapDomainError translates engine error types into HTTP-shaped errors.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	var notFoundErr *workflow.NotFoundError
	if errors.As(err, &notFoundErr) {
		code := ErrCodeTaskNotFound
		if notFoundErr.Kind != "task" {
			code = ErrCodeMemberNotFound
		}
		return notFoundCode(err, code)
	}
	var preconditionErr *workflow.PreconditionError
	if errors.As(err, &preconditionErr) {
		return conflictCode(err, ErrCodePrecondition)
	}
	var forbiddenErr *workflow.ForbiddenError
	if errors.As(err, &forbiddenErr) {
		return forbiddenCode(err, ErrCodeForbidden)
	}

	var mappingExists *githubsync.MappingExistsError
	if errors.As(err, &mappingExists) {
		return conflictCode(err, ErrCodeMappingExists)
	}
	var notLinked *githubsync.NotLinkedError
	if errors.As(err, &notLinked) {
		return conflictCode(err, ErrCodeNotLinked)
	}
	var noCreds *githubsync.NoCredentialsError
	if errors.As(err, &noCreds) {
		return conflictCode(err, ErrCodeNoCredentials)
	}
	var conflictErr *githubsync.ConflictError
	if errors.As(err, &conflictErr) {
		return conflictCode(err, ErrCodeSyncConflict)
	}
	var externalErr *githubsync.ExternalError
	if errors.As(err, &externalErr) {
		return badGateway(err)
	}
	if errors.Is(err, githubsync.ErrMalformedPayload) {
		return badRequestCode(err, ErrCodeMalformedPayload)
	}

	return makeAPIError(http.StatusInternalServerError, "internal", ErrCodeInternal, err)
}
