package githubsync

import (
	"errors"
	"fmt"
)

// ErrDuplicateDelivery marks a webhook delivery whose id was already
// processed. Callers discard the event silently.
var ErrDuplicateDelivery = errors.New("duplicate webhook delivery")

// ErrMalformedPayload marks an unparseable webhook body, rejected before
// any state mutation.
var ErrMalformedPayload = errors.New("malformed webhook payload")

// ExternalError wraps a failed outbound GitHub call. The local state that
// triggered the call is already committed; only the mapping's sync status
// reflects the failure.
type ExternalError struct {
	Op     string
	Status int
	Err    error
}

func (e *ExternalError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("github %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

// ConflictError reports a push/pull disagreement inside the tolerance
// window. Resolution is manual.
type ConflictError struct {
	TaskID string
	Field  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("sync conflict on task %s (%s): local and external changed within the tolerance window", e.TaskID, e.Field)
}

// MappingExistsError reports an attempt to link a task or issue that is
// already linked.
type MappingExistsError struct {
	TaskID      string
	Scope       string
	IssueNumber int
}

func (e *MappingExistsError) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("task %s is already linked", e.TaskID)
	}
	return fmt.Sprintf("issue %s#%d is already linked", e.Scope, e.IssueNumber)
}

// NotLinkedError reports a sync operation on a task without a mapping.
type NotLinkedError struct {
	TaskID string
}

func (e *NotLinkedError) Error() string {
	return fmt.Sprintf("task %s is not linked to an issue", e.TaskID)
}

// NoCredentialsError reports a scope without usable GitHub credentials.
type NoCredentialsError struct {
	Scope string
}

func (e *NoCredentialsError) Error() string {
	return fmt.Sprintf("no github credentials for scope %s", e.Scope)
}
