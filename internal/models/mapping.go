package models

import "time"

// ExternalMapping links a local task 1:1 to a GitHub issue within a
// repository scope ("owner/repo"). At most one mapping per task and at
// most one per (scope, issue number).
type ExternalMapping struct {
	ID                string     `json:"id"`
	TaskID            string     `json:"task_id"`
	Scope             string     `json:"scope"`
	IssueNumber       int        `json:"issue_number"`
	IssueURL          string     `json:"issue_url,omitempty"`
	SyncStatus        SyncStatus `json:"sync_status"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	LocalUpdatedAt    *time.Time `json:"local_updated_at,omitempty"`
	ExternalUpdatedAt *time.Time `json:"external_updated_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// SyncLogEntry is one append-only record of a synchronization action.
// DeliveryID is set for webhook-triggered entries and doubles as the
// idempotency key for at-least-once webhook delivery.
type SyncLogEntry struct {
	ID         int64         `json:"id"`
	TaskID     string        `json:"task_id,omitempty"`
	Scope      string        `json:"scope"`
	Direction  SyncDirection `json:"direction"`
	Action     SyncAction    `json:"action"`
	Field      string        `json:"field,omitempty"`
	OldValue   string        `json:"old_value,omitempty"`
	NewValue   string        `json:"new_value,omitempty"`
	Result     SyncResult    `json:"result"`
	Trigger    SyncTrigger   `json:"trigger"`
	DeliveryID string        `json:"delivery_id,omitempty"`
	Message    string        `json:"message,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
