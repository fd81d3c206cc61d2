package githubsync

import (
	"context"
	"fmt"

	"teamboard/internal/models"
)

// CredentialUpdate carries per-scope GitHub access settings. Empty Token
// and WebhookSecret leave the stored values untouched; SyncEnabled nil
// keeps the current flag.
type CredentialUpdate struct {
	Scope         string
	TeamID        string
	Token         string
	WebhookSecret string
	SyncEnabled   *bool
}

// StoreCredential seals the token and upserts the scope's credential row.
func (e *Engine) StoreCredential(ctx context.Context, update CredentialUpdate) error {
	existing, err := e.sync.GetScopeCredential(ctx, update.Scope)
	if err != nil {
		return err
	}

	cred := &models.ScopeCredential{
		Scope:  update.Scope,
		TeamID: update.TeamID,
	}
	if existing != nil {
		cred.TokenSealed = existing.TokenSealed
		cred.WebhookSecret = existing.WebhookSecret
		cred.SyncEnabled = existing.SyncEnabled
		cred.CreatedAt = existing.CreatedAt
		if update.TeamID == "" {
			cred.TeamID = existing.TeamID
		}
	} else {
		cred.SyncEnabled = true
		cred.CreatedAt = e.now().UTC()
	}

	if update.Token != "" {
		if e.box == nil {
			return fmt.Errorf("secret key not configured, cannot store token for %s", update.Scope)
		}
		sealed, err := e.box.Seal(update.Token)
		if err != nil {
			return err
		}
		cred.TokenSealed = sealed
	}
	if update.WebhookSecret != "" {
		cred.WebhookSecret = update.WebhookSecret
	}
	if update.SyncEnabled != nil {
		cred.SyncEnabled = *update.SyncEnabled
	}

	return e.sync.UpsertScopeCredential(ctx, cred)
}

// ScopeCredential exposes the stored credential row for a scope.
func (e *Engine) ScopeCredential(ctx context.Context, scope string) (*models.ScopeCredential, error) {
	return e.sync.GetScopeCredential(ctx, scope)
}
