package store

import (
	"context"
	"testing"
	"time"

	"teamboard/internal/models"
)

func createTestMember(t *testing.T, st *Store, id, teamID string, leader bool) {
	t.Helper()
	member := &models.Member{
		ID:          id,
		TeamID:      teamID,
		DisplayName: "Member " + id,
		IsLeader:    leader,
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := st.CreateMember(context.Background(), member); err != nil {
		t.Fatalf("create member %s: %v", id, err)
	}
}

func TestCreateAndGetMember(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	createTestMember(t, st, "mb-aa0001", "team-1", true)

	got, err := st.GetMember(ctx, "mb-aa0001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected member, got nil")
	}
	if !got.IsLeader || got.TeamID != "team-1" {
		t.Fatalf("unexpected member: %+v", got)
	}

	absent, err := st.GetMember(ctx, "mb-zz9999")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for absent member, got %+v", absent)
	}
}

func TestUserMappingUpsertAndLookup(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	createTestMember(t, st, "mb-aa0001", "team-1", false)

	if err := st.UpsertUserMapping(ctx, "mb-aa0001", "octocat"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	login, err := st.GithubLoginForMember(ctx, "mb-aa0001")
	if err != nil {
		t.Fatalf("login for member: %v", err)
	}
	if login != "octocat" {
		t.Fatalf("expected octocat, got %q", login)
	}

	memberID, err := st.MemberForGithubLogin(ctx, "octocat")
	if err != nil {
		t.Fatalf("member for login: %v", err)
	}
	if memberID != "mb-aa0001" {
		t.Fatalf("expected mb-aa0001, got %q", memberID)
	}

	// Re-mapping the member replaces the previous login.
	if err := st.UpsertUserMapping(ctx, "mb-aa0001", "hubot"); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	login, err = st.GithubLoginForMember(ctx, "mb-aa0001")
	if err != nil {
		t.Fatalf("login for member: %v", err)
	}
	if login != "hubot" {
		t.Fatalf("expected hubot after replace, got %q", login)
	}

	memberID, err = st.MemberForGithubLogin(ctx, "nobody")
	if err != nil {
		t.Fatalf("member for unknown login: %v", err)
	}
	if memberID != "" {
		t.Fatalf("expected empty member id for unmapped login, got %q", memberID)
	}
}

func TestScopeCredentialUpsert(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cred := &models.ScopeCredential{
		Scope:         "acme/board",
		TeamID:        "team-1",
		TokenSealed:   []byte{1, 2, 3},
		WebhookSecret: "hush",
		SyncEnabled:   true,
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := st.UpsertScopeCredential(ctx, cred); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := st.GetScopeCredential(ctx, "acme/board")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected credential, got nil")
	}
	if got.WebhookSecret != "hush" || !got.SyncEnabled || len(got.TokenSealed) != 3 {
		t.Fatalf("unexpected credential: %+v", got)
	}

	cred.SyncEnabled = false
	cred.TokenSealed = []byte{9, 9}
	if err := st.UpsertScopeCredential(ctx, cred); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = st.GetScopeCredential(ctx, "acme/board")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SyncEnabled || len(got.TokenSealed) != 2 {
		t.Fatalf("expected replaced credential, got %+v", got)
	}

	absent, err := st.GetScopeCredential(ctx, "acme/other")
	if err != nil {
		t.Fatalf("get absent: %v", err)
	}
	if absent != nil {
		t.Fatalf("expected nil for unknown scope, got %+v", absent)
	}
}
