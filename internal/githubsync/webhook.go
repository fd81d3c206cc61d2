package githubsync

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// WebhookAction is the closed set of issue event kinds this engine
// handles. Anything else is acknowledged and ignored.
type WebhookAction string

const (
	ActionOpened       WebhookAction = "opened"
	ActionEdited       WebhookAction = "edited"
	ActionClosed       WebhookAction = "closed"
	ActionReopened     WebhookAction = "reopened"
	ActionLabeled      WebhookAction = "labeled"
	ActionUnlabeled    WebhookAction = "unlabeled"
	ActionAssigned     WebhookAction = "assigned"
	ActionUnassigned   WebhookAction = "unassigned"
	ActionMilestoned   WebhookAction = "milestoned"
	ActionDemilestoned WebhookAction = "demilestoned"
)

var handledActions = map[WebhookAction]struct{}{
	ActionOpened:       {},
	ActionEdited:       {},
	ActionClosed:       {},
	ActionReopened:     {},
	ActionLabeled:      {},
	ActionUnlabeled:    {},
	ActionAssigned:     {},
	ActionUnassigned:   {},
	ActionMilestoned:   {},
	ActionDemilestoned: {},
}

// IsHandled reports whether the engine processes this action kind.
func (a WebhookAction) IsHandled() bool {
	_, ok := handledActions[a]
	return ok
}

// IssueEvent is the subset of the GitHub issues webhook payload this
// engine consumes.
type IssueEvent struct {
	Action     WebhookAction `json:"action"`
	Issue      Issue         `json:"issue"`
	Repository struct {
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
	} `json:"repository"`
}

// Scope resolves the repository scope ("owner/repo") the event belongs to.
func (e *IssueEvent) Scope() string {
	if e.Repository.FullName != "" {
		return e.Repository.FullName
	}
	return scopeFromRepoURL(e.Repository.HTMLURL)
}

// ParseIssueEvent decodes a webhook body. A body that does not parse, or
// that carries no issue number, is rejected before any state mutation.
func ParseIssueEvent(body []byte) (*IssueEvent, error) {
	var event IssueEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if event.Action == "" || event.Issue.Number == 0 {
		return nil, fmt.Errorf("%w: missing action or issue number", ErrMalformedPayload)
	}
	if event.Scope() == "" {
		return nil, fmt.Errorf("%w: missing repository", ErrMalformedPayload)
	}
	return &event, nil
}

// VerifySignature checks the X-Hub-Signature-256 header against the raw
// body using the scope's shared secret. An empty secret disables the
// check.
func VerifySignature(secret string, body []byte, signatureHeader string) bool {
	if secret == "" {
		return true
	}
	expected, ok := strings.CutPrefix(signatureHeader, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(expected))
}

func scopeFromRepoURL(htmlURL string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(htmlURL), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2] + "/" + parts[len(parts)-1]
}
