package models

import "time"

// Task represents a single task on a team board.
type Task struct {
	ID              string         `json:"id"`
	TeamID          string         `json:"team_id"`
	ColumnID        string         `json:"column_id,omitempty"`
	CreatorID       string         `json:"creator_id,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Status          WorkflowStatus `json:"status"`
	Priority        Priority       `json:"priority,omitempty"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	RejectedBy      string         `json:"rejected_by,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Assignee is one member expected to carry out a task.
// Invariant: Completed implies Accepted.
type Assignee struct {
	TaskID    string `json:"task_id"`
	MemberID  string `json:"member_id"`
	Accepted  bool   `json:"accepted"`
	Completed bool   `json:"completed"`
}

// Verifier is one member expected to review a completed task.
type Verifier struct {
	TaskID          string `json:"task_id"`
	MemberID        string `json:"member_id"`
	Approved        bool   `json:"approved"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}
