package notify

import (
	"context"
	"log/slog"
)

// Event identifies what happened to a task.
type Event string

const (
	EventAccepted       Event = "task_accepted"
	EventStarted        Event = "task_started"
	EventMemberDone     Event = "task_member_completed"
	EventReviewReady    Event = "task_review_ready"
	EventApproved       Event = "task_approved"
	EventDone           Event = "task_done"
	EventRejected       Event = "task_rejected"
	EventDeclined       Event = "task_declined"
	EventRestarted      Event = "task_restarted"
	EventForceCompleted Event = "task_force_completed"
)

// Notification is one (recipient, event, task) tuple produced by a
// workflow transition. Transitions return these instead of performing I/O
// so the state machine stays pure.
type Notification struct {
	RecipientID string
	Event       Event
	TaskID      string
	ActorID     string
}

// Dispatcher delivers notifications. Delivery failures are the
// dispatcher's problem; transitions never depend on them.
type Dispatcher interface {
	Dispatch(ctx context.Context, notifications []Notification)
}

// SlogDispatcher logs notifications instead of delivering them. Used as
// the default until a push channel is wired in.
type SlogDispatcher struct {
	Logger *slog.Logger
}

func (d *SlogDispatcher) Dispatch(ctx context.Context, notifications []Notification) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, n := range notifications {
		logger.Info("notify",
			"recipient", n.RecipientID,
			"event", string(n.Event),
			"task", n.TaskID,
			"actor", n.ActorID,
		)
	}
}

var _ Dispatcher = (*SlogDispatcher)(nil)
