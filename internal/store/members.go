package store

import (
	"context"
	"database/sql"
	"fmt"

	"teamboard/internal/models"
)

// CreateMember inserts a member directory row.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	if member == nil {
		return fmt.Errorf("member is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (id, team_id, display_name, is_leader, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, member.ID, member.TeamID, member.DisplayName, member.IsLeader, formatTime(member.CreatedAt))
	return err
}

// GetMember returns a member by id, or nil when absent.
func (s *Store) GetMember(ctx context.Context, id string) (*models.Member, error) {
	var member models.Member
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, team_id, display_name, is_leader, created_at FROM members WHERE id = ?", id).
		Scan(&member.ID, &member.TeamID, &member.DisplayName, &member.IsLeader, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if member.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &member, nil
}

// UpsertUserMapping binds a member to a GitHub login, replacing any
// previous binding for that member.
func (s *Store) UpsertUserMapping(ctx context.Context, memberID, githubLogin string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_mappings (member_id, github_login) VALUES (?, ?)
		ON CONFLICT(member_id) DO UPDATE SET github_login = excluded.github_login
	`, memberID, githubLogin)
	return err
}

// GithubLoginForMember returns the GitHub login mapped to a member, or ""
// when the member has no mapping.
func (s *Store) GithubLoginForMember(ctx context.Context, memberID string) (string, error) {
	var login string
	err := s.db.QueryRowContext(ctx,
		"SELECT github_login FROM user_mappings WHERE member_id = ?", memberID).Scan(&login)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return login, err
}

// MemberForGithubLogin returns the member id mapped to a GitHub login, or
// "" when unmapped.
func (s *Store) MemberForGithubLogin(ctx context.Context, githubLogin string) (string, error) {
	var memberID string
	err := s.db.QueryRowContext(ctx,
		"SELECT member_id FROM user_mappings WHERE github_login = ?", githubLogin).Scan(&memberID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return memberID, err
}

// UpsertScopeCredential stores per-repository GitHub access settings.
func (s *Store) UpsertScopeCredential(ctx context.Context, cred *models.ScopeCredential) error {
	if cred == nil {
		return fmt.Errorf("credential is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scope_credentials (scope, team_id, token_sealed, webhook_secret, sync_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			team_id = excluded.team_id,
			token_sealed = excluded.token_sealed,
			webhook_secret = excluded.webhook_secret,
			sync_enabled = excluded.sync_enabled
	`, cred.Scope, cred.TeamID, cred.TokenSealed, nullIfEmpty(cred.WebhookSecret),
		cred.SyncEnabled, formatTime(cred.CreatedAt))
	return err
}

// GetScopeCredential returns credentials for a repository scope, or nil.
func (s *Store) GetScopeCredential(ctx context.Context, scope string) (*models.ScopeCredential, error) {
	var cred models.ScopeCredential
	var secret sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT scope, team_id, token_sealed, webhook_secret, sync_enabled, created_at
		FROM scope_credentials WHERE scope = ?
	`, scope).Scan(&cred.Scope, &cred.TeamID, &cred.TokenSealed, &secret, &cred.SyncEnabled, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cred.WebhookSecret = secret.String
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &cred, nil
}
