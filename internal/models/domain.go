package models

import (
	"fmt"
	"strings"
)

// WorkflowStatus defines the lifecycle states of a task.
type WorkflowStatus string

const (
	StatusWaiting    WorkflowStatus = "waiting"
	StatusInProgress WorkflowStatus = "in_progress"
	StatusReview     WorkflowStatus = "review"
	StatusDone       WorkflowStatus = "done"
	StatusRejected   WorkflowStatus = "rejected"
	StatusDeclined   WorkflowStatus = "declined"
)

// Priority defines task priority levels. The empty string means unset.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// SyncStatus tracks the health of a task↔issue mapping.
type SyncStatus string

const (
	SyncSynced   SyncStatus = "synced"
	SyncPending  SyncStatus = "pending"
	SyncConflict SyncStatus = "conflict"
	SyncError    SyncStatus = "error"
)

// SyncDirection distinguishes local→external from external→local actions.
type SyncDirection string

const (
	DirectionPush SyncDirection = "push"
	DirectionPull SyncDirection = "pull"
)

// SyncAction categorizes a sync log entry.
type SyncAction string

const (
	ActionCreate SyncAction = "create"
	ActionUpdate SyncAction = "update"
	ActionLink   SyncAction = "link"
	ActionUnlink SyncAction = "unlink"
)

// SyncTrigger records what initiated a sync action.
type SyncTrigger string

const (
	TriggerWebhook SyncTrigger = "webhook"
	TriggerManual  SyncTrigger = "manual"
	TriggerAuto    SyncTrigger = "auto"
)

// SyncResult records the outcome of a sync action.
type SyncResult string

const (
	ResultSuccess  SyncResult = "success"
	ResultFailed   SyncResult = "failed"
	ResultConflict SyncResult = "conflict"
)

var validWorkflowStatuses = map[WorkflowStatus]struct{}{
	StatusWaiting:    {},
	StatusInProgress: {},
	StatusReview:     {},
	StatusDone:       {},
	StatusRejected:   {},
	StatusDeclined:   {},
}

var validPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
	PriorityUrgent: {},
}

// settledStatuses cannot be left by forward recalculation; only an
// explicit restart or an external override moves a task out of them.
var settledStatuses = map[WorkflowStatus]struct{}{
	StatusDone:     {},
	StatusRejected: {},
	StatusDeclined: {},
}

func IsValidWorkflowStatus(status WorkflowStatus) bool {
	_, ok := validWorkflowStatuses[status]
	return ok
}

func IsValidPriority(priority Priority) bool {
	_, ok := validPriorities[priority]
	return ok
}

// IsSettled reports whether status recalculation must leave the task alone.
func (s WorkflowStatus) IsSettled() bool {
	_, ok := settledStatuses[s]
	return ok
}

func ParseWorkflowStatus(raw string) (WorkflowStatus, error) {
	value := WorkflowStatus(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("status is required")
	}
	if !IsValidWorkflowStatus(value) {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return value, nil
}

// ParsePriority parses a priority string. Empty input is valid and means
// unset.
func ParsePriority(raw string) (Priority, error) {
	value := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", nil
	}
	if !IsValidPriority(value) {
		return "", fmt.Errorf("invalid priority: %s", value)
	}
	return value, nil
}
