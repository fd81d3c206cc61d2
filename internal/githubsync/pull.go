package githubsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"teamboard/internal/models"
	"teamboard/internal/store"
	"teamboard/internal/workflow"
)

// ProcessWebhook applies one inbound issue event. The delivery id is the
// sole idempotency guard: a delivery already present in the sync log is
// discarded with ErrDuplicateDelivery before anything else happens.
func (e *Engine) ProcessWebhook(ctx context.Context, deliveryID string, event *IssueEvent) (*PullResult, error) {
	duplicate, err := e.sync.HasDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicateDelivery
	}

	result := &PullResult{Scope: event.Scope(), Action: event.Action}
	if !event.Action.IsHandled() {
		result.Message = "unhandled action"
		return result, nil
	}

	eventTime := e.now().UTC()
	var entry *models.SyncLogEntry

	switch event.Action {
	case ActionOpened:
		entry, err = e.pullOpened(ctx, event, result, eventTime)
	default:
		entry, err = e.pullUpdate(ctx, event, result, eventTime)
	}
	if err != nil {
		return nil, err
	}

	entry.DeliveryID = deliveryID
	entry.Trigger = models.TriggerWebhook
	entry.Direction = models.DirectionPull
	entry.CreatedAt = eventTime
	if err := e.sync.AppendSyncLog(ctx, entry); err != nil {
		return nil, err
	}
	return result, nil
}

// pullOpened creates a local task for a new issue when the scope has sync
// enabled, routing it through the column router and mapping labels,
// milestone and assignees inward.
func (e *Engine) pullOpened(ctx context.Context, event *IssueEvent, result *PullResult, eventTime time.Time) (*models.SyncLogEntry, error) {
	scope := event.Scope()
	entry := &models.SyncLogEntry{
		Scope:  scope,
		Action: models.ActionCreate,
		Result: models.ResultSuccess,
	}

	existing, err := e.sync.GetMappingByIssue(ctx, scope, event.Issue.Number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		result.TaskID = existing.TaskID
		result.Message = "issue already linked"
		entry.TaskID = existing.TaskID
		return entry, nil
	}

	cred, err := e.sync.GetScopeCredential(ctx, scope)
	if err != nil {
		return nil, err
	}
	if cred == nil || !cred.SyncEnabled {
		result.Message = "sync disabled for scope"
		return entry, nil
	}

	router, err := NewRouter(ctx, e.board, cred.TeamID)
	if err != nil {
		return nil, err
	}
	task, err := e.createTaskFromIssue(ctx, router, cred.TeamID, scope, &event.Issue, eventTime)
	if err != nil {
		return nil, err
	}

	result.TaskID = task.ID
	result.Applied = true
	entry.TaskID = task.ID
	entry.NewValue = fmt.Sprintf("#%d", event.Issue.Number)
	return entry, nil
}

// createTaskFromIssue is shared by the opened webhook and the bulk
// importer. The caller supplies the router so an import batch reuses one.
func (e *Engine) createTaskFromIssue(ctx context.Context, router *Router, teamID, scope string, issue *Issue, eventTime time.Time) (*models.Task, error) {
	columnID, title, err := router.Route(ctx, issue.Title)
	if err != nil {
		return nil, err
	}

	status := models.StatusWaiting
	if mapped, ok := StatusFromLabels(issue.LabelNames()); ok {
		status = mapped
	}
	priority, _ := PriorityFromLabels(issue.LabelNames())

	task := &models.Task{
		TeamID:      teamID,
		ColumnID:    columnID,
		Title:       title,
		Description: issue.Body,
		Status:      status,
		Priority:    priority,
		DueDate:     milestoneDueDate(issue.Milestone),
		CreatedAt:   eventTime,
		UpdatedAt:   eventTime,
	}
	task.ID, err = store.GenerateTaskID(e.tasks.TaskExists)
	if err != nil {
		return nil, err
	}

	var assigneeIDs []string
	for _, user := range issue.Assignees {
		memberID, err := e.sync.MemberForGithubLogin(ctx, user.Login)
		if err != nil {
			return nil, err
		}
		if memberID != "" {
			assigneeIDs = append(assigneeIDs, memberID)
		}
	}

	if err := e.tasks.CreateTask(ctx, task, assigneeIDs, nil); err != nil {
		return nil, err
	}

	mapping := &models.ExternalMapping{
		TaskID:            task.ID,
		Scope:             scope,
		IssueNumber:       issue.Number,
		IssueURL:          issue.HTMLURL,
		SyncStatus:        models.SyncSynced,
		ExternalUpdatedAt: &eventTime,
		CreatedAt:         eventTime,
	}
	mapping.ID, err = store.GenerateMappingID(nil)
	if err != nil {
		return nil, err
	}
	if err := e.sync.CreateMapping(ctx, mapping); err != nil {
		return nil, err
	}
	return task, nil
}

// pullUpdate handles every event kind against an already-linked issue.
func (e *Engine) pullUpdate(ctx context.Context, event *IssueEvent, result *PullResult, eventTime time.Time) (*models.SyncLogEntry, error) {
	scope := event.Scope()
	entry := &models.SyncLogEntry{
		Scope:  scope,
		Action: models.ActionUpdate,
		Field:  string(event.Action),
		Result: models.ResultSuccess,
	}

	mapping, err := e.sync.GetMappingByIssue(ctx, scope, event.Issue.Number)
	if err != nil {
		return nil, err
	}
	if mapping == nil {
		result.Message = "issue not linked"
		return entry, nil
	}
	result.TaskID = mapping.TaskID
	entry.TaskID = mapping.TaskID

	task, err := e.tasks.GetTask(ctx, mapping.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &workflow.NotFoundError{Kind: "task", ID: mapping.TaskID}
	}

	switch event.Action {
	case ActionEdited:
		err = e.applyEdit(ctx, task, event, result, eventTime)
	case ActionClosed:
		err = e.applyClosed(ctx, task, result, entry, eventTime)
	case ActionReopened:
		err = e.applyReopened(ctx, task, result, entry, eventTime)
	case ActionLabeled, ActionUnlabeled:
		err = e.applyLabels(ctx, task, mapping, event, result, entry, eventTime)
	case ActionAssigned, ActionUnassigned:
		err = e.applyAssignees(ctx, task, event, result, eventTime)
	case ActionMilestoned, ActionDemilestoned:
		err = e.applyMilestone(ctx, task, event, result, eventTime)
	}
	if err != nil {
		return nil, err
	}

	if result.Conflict {
		entry.Result = models.ResultConflict
		return entry, nil
	}

	if err := e.sync.UpdateMapping(ctx, mapping.ID, store.MappingUpdate{
		ExternalUpdatedAt: &eventTime,
	}); err != nil {
		return nil, err
	}
	return entry, nil
}

func (e *Engine) applyEdit(ctx context.Context, task *models.Task, event *IssueEvent, result *PullResult, eventTime time.Time) error {
	update := store.TaskUpdate{UpdatedAt: eventTime}
	changed := false
	if event.Issue.Title != "" && event.Issue.Title != task.Title {
		update.Title = &event.Issue.Title
		changed = true
	}
	if event.Issue.Body != task.Description {
		update.Description = &event.Issue.Body
		changed = true
	}
	if !changed {
		result.Message = "no changes"
		return nil
	}
	if err := e.tasks.UpdateTask(ctx, task.ID, update); err != nil {
		return err
	}
	result.Applied = true
	return nil
}

// applyClosed forces the task to DONE. Closing is authoritative and does
// not consult assignee/verifier consensus.
func (e *Engine) applyClosed(ctx context.Context, task *models.Task, result *PullResult, entry *models.SyncLogEntry, eventTime time.Time) error {
	if task.Status == models.StatusDone {
		result.Message = "already done"
		return nil
	}
	done := models.StatusDone
	entry.OldValue = string(task.Status)
	entry.NewValue = string(done)
	if err := e.tasks.UpdateTask(ctx, task.ID, store.TaskUpdate{Status: &done, UpdatedAt: eventTime}); err != nil {
		return err
	}
	result.Applied = true
	return nil
}

// applyReopened reverts a DONE task to WAITING. Like closing, this is an
// override outside the state machine's guards.
func (e *Engine) applyReopened(ctx context.Context, task *models.Task, result *PullResult, entry *models.SyncLogEntry, eventTime time.Time) error {
	if task.Status != models.StatusDone {
		result.Message = "task not done"
		return nil
	}
	waiting := models.StatusWaiting
	entry.OldValue = string(task.Status)
	entry.NewValue = string(waiting)
	if err := e.tasks.UpdateTask(ctx, task.ID, store.TaskUpdate{Status: &waiting, UpdatedAt: eventTime}); err != nil {
		return err
	}
	result.Applied = true
	return nil
}

// applyLabels re-derives status and priority from the issue's full label
// set, honoring the conflict policy: a local change inside the tolerance
// window marks the mapping CONFLICT instead of applying the pull.
func (e *Engine) applyLabels(ctx context.Context, task *models.Task, mapping *models.ExternalMapping, event *IssueEvent, result *PullResult, entry *models.SyncLogEntry, eventTime time.Time) error {
	if inConflictWindow(mapping.LocalUpdatedAt, eventTime) {
		conflict := models.SyncConflict
		if err := e.sync.UpdateMapping(ctx, mapping.ID, store.MappingUpdate{SyncStatus: &conflict}); err != nil {
			return err
		}
		result.Conflict = true
		result.Message = "local and external changed within tolerance window"
		return nil
	}
	if mapping.LocalUpdatedAt != nil && eventTime.Before(*mapping.LocalUpdatedAt) {
		result.Message = "stale external change"
		return nil
	}

	names := event.Issue.LabelNames()
	update := store.TaskUpdate{UpdatedAt: eventTime}
	changed := false

	if status, ok := StatusFromLabels(names); ok && status != task.Status {
		update.Status = &status
		entry.OldValue = string(task.Status)
		entry.NewValue = string(status)
		changed = true
	}
	if priority, ok := PriorityFromLabels(names); ok {
		if priority != task.Priority {
			update.Priority = &priority
			changed = true
		}
	} else if task.Priority != "" {
		unset := models.Priority("")
		update.Priority = &unset
		changed = true
	}

	if !changed {
		result.Message = "no label-derived changes"
		return nil
	}
	if err := e.tasks.UpdateTask(ctx, task.ID, update); err != nil {
		return err
	}
	result.Applied = true
	return nil
}

// applyAssignees reconciles the local assignee set against the issue's
// assignee logins. Retained members keep their accepted/completed flags.
func (e *Engine) applyAssignees(ctx context.Context, task *models.Task, event *IssueEvent, result *PullResult, eventTime time.Time) error {
	desired := make(map[string]struct{})
	for _, user := range event.Issue.Assignees {
		memberID, err := e.sync.MemberForGithubLogin(ctx, user.Login)
		if err != nil {
			return err
		}
		if memberID != "" {
			desired[memberID] = struct{}{}
		}
	}

	current, err := e.tasks.ListAssignees(ctx, task.ID)
	if err != nil {
		return err
	}

	changed := false
	for _, a := range current {
		if _, keep := desired[a.MemberID]; keep {
			delete(desired, a.MemberID)
			continue
		}
		if err := e.tasks.RemoveAssignee(ctx, task.ID, a.MemberID); err != nil {
			return err
		}
		changed = true
	}
	for memberID := range desired {
		if err := e.tasks.AddAssignee(ctx, task.ID, memberID); err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		result.Message = "assignees unchanged"
		return nil
	}

	// Set mutations outside the workflow commands require a consensus
	// recomputation.
	if _, err := e.wf.Recalculate(ctx, task.ID); err != nil {
		return err
	}
	result.Applied = true
	return nil
}

func (e *Engine) applyMilestone(ctx context.Context, task *models.Task, event *IssueEvent, result *PullResult, eventTime time.Time) error {
	update := store.TaskUpdate{UpdatedAt: eventTime}
	if event.Action == ActionMilestoned {
		due := milestoneDueDate(event.Issue.Milestone)
		if due == nil {
			result.Message = "milestone has no due date"
			return nil
		}
		update.DueDate = due
	} else {
		update.ClearDueDate = true
	}
	if err := e.tasks.UpdateTask(ctx, task.ID, update); err != nil {
		return err
	}
	result.Applied = true
	return nil
}

// inConflictWindow reports whether a local change and an external event
// landed within the tolerance window of each other.
func inConflictWindow(localUpdatedAt *time.Time, eventTime time.Time) bool {
	if localUpdatedAt == nil {
		return false
	}
	delta := eventTime.Sub(*localUpdatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta < conflictWindow
}

// milestoneDueDate extracts a due date from a milestone's due_on
// timestamp. Only the date part (first 10 characters) is used.
func milestoneDueDate(m *Milestone) *time.Time {
	if m == nil {
		return nil
	}
	raw := strings.TrimSpace(m.DueOn)
	if len(raw) < 10 {
		return nil
	}
	due, err := time.Parse("2006-01-02", raw[:10])
	if err != nil {
		return nil
	}
	return &due
}
