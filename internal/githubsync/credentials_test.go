package githubsync

import (
	"context"
	"testing"
)

func TestStoreCredentialSealsToken(t *testing.T) {
	fix := newSyncFixture(t)
	ctx := context.Background()

	err := fix.engine.StoreCredential(ctx, CredentialUpdate{
		Scope:  "acme/board",
		TeamID: "team-1",
		Token:  "ghp_secret",
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	cred, err := fix.engine.ScopeCredential(ctx, "acme/board")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cred == nil || len(cred.TokenSealed) == 0 {
		t.Fatal("expected sealed token on stored credential")
	}
	token, err := fix.box.Open(cred.TokenSealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if token != "ghp_secret" {
		t.Fatalf("round trip mismatch: %q", token)
	}
	if !cred.SyncEnabled {
		t.Fatal("new scopes default to sync enabled")
	}
}

func TestStoreCredentialPreservesUnsetFields(t *testing.T) {
	fix := newSyncFixture(t)
	ctx := context.Background()

	if err := fix.engine.StoreCredential(ctx, CredentialUpdate{
		Scope:         "acme/board",
		TeamID:        "team-1",
		Token:         "ghp_secret",
		WebhookSecret: "hush",
	}); err != nil {
		t.Fatalf("store: %v", err)
	}

	// Flipping only the sync flag must leave token and secret intact.
	disabled := false
	if err := fix.engine.StoreCredential(ctx, CredentialUpdate{
		Scope:       "acme/board",
		SyncEnabled: &disabled,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	cred, err := fix.engine.ScopeCredential(ctx, "acme/board")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cred.SyncEnabled {
		t.Fatal("expected sync disabled")
	}
	if len(cred.TokenSealed) == 0 || cred.WebhookSecret != "hush" || cred.TeamID != "team-1" {
		t.Fatalf("unset fields must be preserved, got %+v", cred)
	}
}

func TestStoreCredentialWithoutBox(t *testing.T) {
	fix := newSyncFixture(t)
	fix.engine.box = nil

	err := fix.engine.StoreCredential(context.Background(), CredentialUpdate{
		Scope: "acme/board",
		Token: "ghp_secret",
	})
	if err == nil {
		t.Fatal("expected error storing a token without a secret key")
	}
}
