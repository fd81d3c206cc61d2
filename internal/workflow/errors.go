package workflow

import (
	"fmt"

	"teamboard/internal/models"
)

// PreconditionError reports a command issued against the wrong workflow
// state. It always names the required and actual states so the caller can
// act on it.
type PreconditionError struct {
	Command  string
	Required []models.WorkflowStatus
	Actual   models.WorkflowStatus
}

func (e *PreconditionError) Error() string {
	if len(e.Required) == 1 {
		return fmt.Sprintf("%s requires status %s, task is %s", e.Command, e.Required[0], e.Actual)
	}
	return fmt.Sprintf("%s not allowed while task is %s", e.Command, e.Actual)
}

// ForbiddenError reports an authorization failure on a privileged command.
type ForbiddenError struct {
	Command      string
	ActorID      string
	RequiredRole string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s requires %s, actor %s is neither", e.Command, e.RequiredRole, e.ActorID)
}

// NotFoundError reports an unknown task or a member outside the task's
// assignee/verifier set.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func preconditionFailed(command string, actual models.WorkflowStatus, required ...models.WorkflowStatus) error {
	return &PreconditionError{Command: command, Required: required, Actual: actual}
}
