package models

import "time"

// Member is a directory row for a team member. Only the fields the
// workflow and sync engines need are kept here.
type Member struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	DisplayName string    `json:"display_name"`
	IsLeader    bool      `json:"is_leader"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserMapping links a local member to a GitHub login for assignee sync.
type UserMapping struct {
	MemberID    string `json:"member_id"`
	GithubLogin string `json:"github_login"`
}

// ScopeCredential holds per-repository GitHub access: an encrypted API
// token and the webhook shared secret. SyncEnabled gates inbound
// issue-opened auto-creation for the scope.
type ScopeCredential struct {
	Scope         string    `json:"scope"`
	TeamID        string    `json:"team_id"`
	TokenSealed   []byte    `json:"-"`
	WebhookSecret string    `json:"-"`
	SyncEnabled   bool      `json:"sync_enabled"`
	CreatedAt     time.Time `json:"created_at"`
}
