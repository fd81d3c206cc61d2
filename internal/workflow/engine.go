package workflow

import (
	"context"
	"time"

	"teamboard/internal/models"
	"teamboard/internal/notify"
	"teamboard/internal/store"
)

// Engine is the workflow state machine. It owns every legal transition of
// a task's status and derives status changes from assignee/verifier
// consensus. It performs no I/O beyond the task store: notification
// side effects are returned to the caller, external sync is the caller's
// follow-up.
type Engine struct {
	store store.TaskStore
	now   func() time.Time
}

// NewEngine constructs a workflow engine over a task store.
func NewEngine(taskStore store.TaskStore) *Engine {
	return &Engine{store: taskStore, now: time.Now}
}

// Transition is the outcome of one workflow command.
type Transition struct {
	Task          *models.Task
	From          models.WorkflowStatus
	To            models.WorkflowStatus
	Notifications []notify.Notification
}

// StatusChanged reports whether the command moved the task's status.
func (t *Transition) StatusChanged() bool {
	return t.From != t.To
}

// Accept records one assignee's acceptance. When the last assignee
// accepts, the task moves WAITING → IN_PROGRESS.
func (e *Engine) Accept(ctx context.Context, taskID, memberID string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusWaiting {
		return nil, preconditionFailed("accept", task.Status, models.StatusWaiting)
	}

	ok, err := e.store.MarkAccepted(ctx, taskID, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Kind: "assignee", ID: memberID}
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	tr.notify(task.CreatorID, notify.EventAccepted, taskID, memberID)

	allAccepted, err := e.store.AllAssigneesAccepted(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if allAccepted {
		if err := e.move(ctx, tr, models.StatusWaiting, models.StatusInProgress); err != nil {
			return nil, err
		}
		if err := e.notifyAssignees(ctx, tr, notify.EventStarted, memberID); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// Complete records one assignee's completion. When the last assignee
// completes, the task moves IN_PROGRESS → REVIEW when it has verifiers,
// IN_PROGRESS → DONE otherwise.
func (e *Engine) Complete(ctx context.Context, taskID, memberID string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusInProgress {
		return nil, preconditionFailed("complete", task.Status, models.StatusInProgress)
	}

	ok, err := e.store.MarkCompleted(ctx, taskID, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Kind: "assignee", ID: memberID}
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	tr.notify(task.CreatorID, notify.EventMemberDone, taskID, memberID)

	allCompleted, err := e.store.AllAssigneesCompleted(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !allCompleted {
		return tr, nil
	}

	verifierCount, err := e.store.CountVerifiers(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if verifierCount > 0 {
		if err := e.move(ctx, tr, models.StatusInProgress, models.StatusReview); err != nil {
			return nil, err
		}
		if err := e.notifyVerifiers(ctx, tr, notify.EventReviewReady, memberID); err != nil {
			return nil, err
		}
		return tr, nil
	}

	if err := e.move(ctx, tr, models.StatusInProgress, models.StatusDone); err != nil {
		return nil, err
	}
	if err := e.notifyAssignees(ctx, tr, notify.EventDone, memberID); err != nil {
		return nil, err
	}
	tr.notify(task.CreatorID, notify.EventDone, taskID, memberID)
	return tr, nil
}

// Approve records one verifier's approval. When the last verifier
// approves, the task moves REVIEW → DONE.
func (e *Engine) Approve(ctx context.Context, taskID, memberID string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusReview {
		return nil, preconditionFailed("approve", task.Status, models.StatusReview)
	}

	ok, err := e.store.MarkApproved(ctx, taskID, memberID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Kind: "verifier", ID: memberID}
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	tr.notify(task.CreatorID, notify.EventApproved, taskID, memberID)

	allApproved, err := e.store.AllVerifiersApproved(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if allApproved {
		if err := e.move(ctx, tr, models.StatusReview, models.StatusDone); err != nil {
			return nil, err
		}
		if err := e.notifyAssignees(ctx, tr, notify.EventDone, memberID); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

// Reject records a verifier rejection: the reason and rejecter land on the
// task, every assignee's completed flag is reset, and the task moves
// REVIEW → REJECTED.
func (e *Engine) Reject(ctx context.Context, taskID, memberID, reason string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusReview {
		return nil, preconditionFailed("reject", task.Status, models.StatusReview)
	}

	ok, err := e.store.RecordVerifierRejection(ctx, taskID, memberID, reason)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Kind: "verifier", ID: memberID}
	}

	if err := e.store.ResetAssigneesCompleted(ctx, taskID); err != nil {
		return nil, err
	}
	if err := e.store.UpdateTask(ctx, taskID, store.TaskUpdate{
		RejectionReason: &reason,
		RejectedBy:      &memberID,
		UpdatedAt:       e.now(),
	}); err != nil {
		return nil, err
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	if err := e.move(ctx, tr, models.StatusReview, models.StatusRejected); err != nil {
		return nil, err
	}
	if err := e.notifyAssignees(ctx, tr, notify.EventRejected, memberID); err != nil {
		return nil, err
	}
	tr.notify(task.CreatorID, notify.EventRejected, taskID, memberID)
	return tr, nil
}

// Decline lets an assignee refuse a task before anyone starts. Terminal:
// WAITING → DECLINED.
func (e *Engine) Decline(ctx context.Context, taskID, memberID, reason string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusWaiting {
		return nil, preconditionFailed("decline", task.Status, models.StatusWaiting)
	}

	isAssignee, err := e.isAssignee(ctx, taskID, memberID)
	if err != nil {
		return nil, err
	}
	if !isAssignee {
		return nil, &NotFoundError{Kind: "assignee", ID: memberID}
	}

	if err := e.store.UpdateTask(ctx, taskID, store.TaskUpdate{
		RejectionReason: &reason,
		RejectedBy:      &memberID,
		UpdatedAt:       e.now(),
	}); err != nil {
		return nil, err
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	if err := e.move(ctx, tr, models.StatusWaiting, models.StatusDeclined); err != nil {
		return nil, err
	}
	tr.notify(task.CreatorID, notify.EventDeclined, taskID, memberID)
	return tr, nil
}

// Restart recovers a rejected task: every verifier's approval is reset and
// the task returns to IN_PROGRESS.
func (e *Engine) Restart(ctx context.Context, taskID, memberID string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != models.StatusRejected {
		return nil, preconditionFailed("restart", task.Status, models.StatusRejected)
	}

	if err := e.store.ResetVerifiersApproved(ctx, taskID); err != nil {
		return nil, err
	}
	empty := ""
	if err := e.store.UpdateTask(ctx, taskID, store.TaskUpdate{
		RejectionReason: &empty,
		RejectedBy:      &empty,
		UpdatedAt:       e.now(),
	}); err != nil {
		return nil, err
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	if err := e.move(ctx, tr, models.StatusRejected, models.StatusInProgress); err != nil {
		return nil, err
	}
	if err := e.notifyAssignees(ctx, tr, notify.EventRestarted, memberID); err != nil {
		return nil, err
	}
	if err := e.notifyVerifiers(ctx, tr, notify.EventRestarted, memberID); err != nil {
		return nil, err
	}
	return tr, nil
}

// ForceComplete moves a task straight to DONE from any non-DONE state.
// Restricted to the team leader or the task creator: all assignees are
// force-accepted and force-completed, all verifiers force-approved.
func (e *Engine) ForceComplete(ctx context.Context, taskID, actorID string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusDone {
		return nil, preconditionFailed("force_complete", task.Status)
	}

	authorized := task.CreatorID != "" && task.CreatorID == actorID
	if !authorized {
		member, err := e.store.GetMember(ctx, actorID)
		if err != nil {
			return nil, err
		}
		authorized = member != nil && member.IsLeader && member.TeamID == task.TeamID
	}
	if !authorized {
		return nil, &ForbiddenError{Command: "force_complete", ActorID: actorID, RequiredRole: "team leader or task creator"}
	}

	if err := e.store.ForceCompleteRoles(ctx, taskID); err != nil {
		return nil, err
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	if err := e.move(ctx, tr, task.Status, models.StatusDone); err != nil {
		return nil, err
	}
	if err := e.notifyAssignees(ctx, tr, notify.EventForceCompleted, actorID); err != nil {
		return nil, err
	}
	if err := e.notifyVerifiers(ctx, tr, notify.EventForceCompleted, actorID); err != nil {
		return nil, err
	}
	return tr, nil
}

// Recalculate re-derives the status from current consensus. It walks
// forward only (WAITING → IN_PROGRESS → REVIEW/DONE) and is a no-op on an
// already-correct state, so it is safe to run after any assignee or
// verifier set mutation. Settled states are never left.
func (e *Engine) Recalculate(ctx context.Context, taskID string) (*Transition, error) {
	task, err := e.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	tr := &Transition{Task: task, From: task.Status, To: task.Status}
	if task.Status.IsSettled() {
		return tr, nil
	}

	if tr.To == models.StatusWaiting {
		allAccepted, err := e.store.AllAssigneesAccepted(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if allAccepted {
			if err := e.move(ctx, tr, models.StatusWaiting, models.StatusInProgress); err != nil {
				return nil, err
			}
		}
	}

	if tr.To == models.StatusInProgress {
		allCompleted, err := e.store.AllAssigneesCompleted(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if allCompleted {
			verifierCount, err := e.store.CountVerifiers(ctx, taskID)
			if err != nil {
				return nil, err
			}
			next := models.StatusDone
			if verifierCount > 0 {
				next = models.StatusReview
			}
			if err := e.move(ctx, tr, models.StatusInProgress, next); err != nil {
				return nil, err
			}
		}
	}

	if tr.To == models.StatusReview {
		allApproved, err := e.store.AllVerifiersApproved(ctx, taskID)
		if err != nil {
			return nil, err
		}
		if allApproved {
			if err := e.move(ctx, tr, models.StatusReview, models.StatusDone); err != nil {
				return nil, err
			}
		}
	}

	return tr, nil
}

func (e *Engine) loadTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &NotFoundError{Kind: "task", ID: taskID}
	}
	return task, nil
}

// move performs the compare-and-swap status write. A lost race (the task
// is no longer in the expected state) leaves the transition unchanged;
// the caller's recalculation will converge.
func (e *Engine) move(ctx context.Context, tr *Transition, from, to models.WorkflowStatus) error {
	ok, err := e.store.SetStatus(ctx, tr.Task.ID, from, to, e.now())
	if err != nil {
		return err
	}
	if ok {
		tr.To = to
		tr.Task.Status = to
	}
	return nil
}

func (e *Engine) isAssignee(ctx context.Context, taskID, memberID string) (bool, error) {
	assignees, err := e.store.ListAssignees(ctx, taskID)
	if err != nil {
		return false, err
	}
	for _, a := range assignees {
		if a.MemberID == memberID {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) notifyAssignees(ctx context.Context, tr *Transition, event notify.Event, actorID string) error {
	assignees, err := e.store.ListAssignees(ctx, tr.Task.ID)
	if err != nil {
		return err
	}
	for _, a := range assignees {
		tr.notify(a.MemberID, event, tr.Task.ID, actorID)
	}
	return nil
}

func (e *Engine) notifyVerifiers(ctx context.Context, tr *Transition, event notify.Event, actorID string) error {
	verifiers, err := e.store.ListVerifiers(ctx, tr.Task.ID)
	if err != nil {
		return err
	}
	for _, v := range verifiers {
		tr.notify(v.MemberID, event, tr.Task.ID, actorID)
	}
	return nil
}

// notify appends one notification, skipping the actor and duplicates.
func (t *Transition) notify(recipientID string, event notify.Event, taskID, actorID string) {
	if recipientID == "" || recipientID == actorID {
		return
	}
	for _, n := range t.Notifications {
		if n.RecipientID == recipientID && n.Event == event {
			return
		}
	}
	t.Notifications = append(t.Notifications, notify.Notification{
		RecipientID: recipientID,
		Event:       event,
		TaskID:      taskID,
		ActorID:     actorID,
	})
}
