package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"teamboard/internal/api"
	"teamboard/internal/githubsync"
)

const (
	deliveryHeader  = "X-GitHub-Delivery"
	eventHeader     = "X-GitHub-Event"
	signatureHeader = "X-Hub-Signature-256"
)

// handleGithubWebhook receives issue events. The delivery id header is
// the idempotency key; the per-scope webhook secret, when configured,
// must sign the raw body. No state changes before both checks pass.
func (s *Server) handleGithubWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.requireSync(w, r) {
		return
	}

	deliveryID := strings.TrimSpace(r.Header.Get(deliveryHeader))
	if deliveryID == "" {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("missing %s header", deliveryHeader), ErrCodeMissingRequired))
		return
	}

	if kind := r.Header.Get(eventHeader); kind != "" && kind != "issues" {
		s.writeJSON(w, http.StatusOK, api.WebhookResponse{Message: "ignored event: " + kind})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, webhookMaxBody))
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyDecodeJSONError(err))
		return
	}

	event, err := githubsync.ParseIssueEvent(body)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(err, ErrCodeMalformedPayload))
		return
	}

	cred, err := s.syncEngine.ScopeCredential(r.Context(), event.Scope())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if cred != nil && cred.WebhookSecret != "" {
		if !githubsync.VerifySignature(cred.WebhookSecret, body, r.Header.Get(signatureHeader)) {
			s.writeErrorReq(w, r, http.StatusUnauthorized,
				unauthorizedCode(fmt.Errorf("webhook signature mismatch"), ErrCodeBadSignature))
			return
		}
	}

	result, err := s.syncEngine.ProcessWebhook(r.Context(), deliveryID, event)
	if err != nil {
		if errors.Is(err, githubsync.ErrDuplicateDelivery) {
			s.writeJSON(w, http.StatusOK, api.WebhookResponse{Duplicate: true})
			return
		}
		s.writeServiceError(w, r, mapDomainError(err))
		return
	}

	s.writeJSON(w, http.StatusOK, api.WebhookResponse{
		Applied:  result.Applied,
		Conflict: result.Conflict,
		TaskID:   result.TaskID,
		Message:  result.Message,
	})
}
