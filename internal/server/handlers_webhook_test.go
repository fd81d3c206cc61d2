package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"teamboard/internal/api"
)

func webhookIssueBody(t *testing.T, action string, number int, title string) []byte {
	t.Helper()
	payload := map[string]any{
		"action": action,
		"issue": map[string]any{
			"number":   number,
			"title":    title,
			"state":    "open",
			"html_url": fmt.Sprintf("https://github.com/acme/board/issues/%d", number),
		},
		"repository": map[string]string{"full_name": "acme/board"},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal webhook payload: %v", err)
	}
	return data
}

func postWebhook(t *testing.T, srv *Server, deliveryID string, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/github", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(eventHeader, "issues")
	if deliveryID != "" {
		req.Header.Set(deliveryHeader, deliveryID)
	}
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)
	return w
}

func TestWebhookRequiresDeliveryID(t *testing.T) {
	srv := newTestServer(t)

	w := postWebhook(t, srv, "", webhookIssueBody(t, "opened", 1, "No delivery"), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeMissingRequired {
		t.Fatalf("expected error_code %d, got %d", ErrCodeMissingRequired, errResp.ErrorCode)
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/github", bytes.NewReader([]byte("{}")))
	req.Header.Set(deliveryHeader, "dv-push-1")
	req.Header.Set(eventHeader, "push")
	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Applied || resp.Message == "" {
		t.Fatalf("expected an ignored-event message, got %+v", resp)
	}
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	srv := newTestServer(t)

	w := postWebhook(t, srv, "dv-bad-1", []byte(`{"issue": {"number": 1}}`), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeMalformedPayload {
		t.Fatalf("expected error_code %d, got %d", ErrCodeMalformedPayload, errResp.ErrorCode)
	}
}

func TestWebhookOpenedCreatesTask(t *testing.T) {
	srv := newTestServer(t)
	storeServerCredential(t, srv, api.ScopeCredentialRequest{
		Scope:  "acme/board",
		TeamID: "team-1",
		Token:  "ghp_test",
	})

	w := postWebhook(t, srv, "dv-open-1", webhookIssueBody(t, "opened", 41, "Inbound issue"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp api.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Applied || resp.TaskID == "" {
		t.Fatalf("expected applied delivery with a task id, got %+v", resp)
	}

	taskW := serveJSON(t, srv, http.MethodGet, "/v1/tasks/"+resp.TaskID, nil)
	if taskW.Code != http.StatusOK {
		t.Fatalf("get imported task: %d (%s)", taskW.Code, taskW.Body.String())
	}
	var task api.TaskResponse
	if err := json.Unmarshal(taskW.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.Title != "Inbound issue" || task.Mapping == nil || task.Mapping.IssueNumber != 41 {
		t.Fatalf("unexpected imported task: %+v", task)
	}
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	srv := newTestServer(t)
	storeServerCredential(t, srv, api.ScopeCredentialRequest{
		Scope:  "acme/board",
		TeamID: "team-1",
		Token:  "ghp_test",
	})
	body := webhookIssueBody(t, "opened", 42, "Delivered twice")

	w := postWebhook(t, srv, "dv-dup-1", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("first delivery: %d (%s)", w.Code, w.Body.String())
	}

	w = postWebhook(t, srv, "dv-dup-1", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("second delivery: %d (%s)", w.Code, w.Body.String())
	}
	var resp api.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Duplicate {
		t.Fatalf("expected duplicate marker, got %+v", resp)
	}
}

func TestWebhookSignatureEnforced(t *testing.T) {
	srv := newTestServer(t)
	storeServerCredential(t, srv, api.ScopeCredentialRequest{
		Scope:         "acme/board",
		TeamID:        "team-1",
		Token:         "ghp_test",
		WebhookSecret: "hush",
	})
	body := webhookIssueBody(t, "opened", 43, "Signed delivery")

	w := postWebhook(t, srv, "dv-sig-1", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d (%s)", w.Code, w.Body.String())
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeBadSignature {
		t.Fatalf("expected error_code %d, got %d", ErrCodeBadSignature, errResp.ErrorCode)
	}

	mac := hmac.New(sha256.New, []byte("hush"))
	mac.Write(body)
	signature := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	w = postWebhook(t, srv, "dv-sig-2", body, signature)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid signature, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestWebhookWithoutSyncEngine(t *testing.T) {
	srv := newTestServerWithoutSync(t)

	w := postWebhook(t, srv, "dv-off-1", webhookIssueBody(t, "opened", 44, "Nobody home"), "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%s)", w.Code, w.Body.String())
	}
	if errResp := decodeErrorResponse(t, w); errResp.ErrorCode != ErrCodeNoCredentials {
		t.Fatalf("expected error_code %d, got %d", ErrCodeNoCredentials, errResp.ErrorCode)
	}
}
