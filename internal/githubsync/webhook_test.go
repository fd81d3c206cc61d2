package githubsync

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func TestParseIssueEvent(t *testing.T) {
	body := []byte(`{
		"action": "opened",
		"issue": {"number": 7, "title": "Crash", "labels": [{"name": "bug"}]},
		"repository": {"full_name": "acme/board"}
	}`)

	event, err := ParseIssueEvent(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Action != ActionOpened || event.Issue.Number != 7 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Scope() != "acme/board" {
		t.Fatalf("unexpected scope: %s", event.Scope())
	}
}

func TestParseIssueEventScopeFromURL(t *testing.T) {
	body := []byte(`{
		"action": "closed",
		"issue": {"number": 3},
		"repository": {"html_url": "https://github.com/acme/board/"}
	}`)

	event, err := ParseIssueEvent(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.Scope() != "acme/board" {
		t.Fatalf("expected scope from repository url, got %q", event.Scope())
	}
}

func TestParseIssueEventRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"not json":       []byte(`{not json`),
		"missing action": []byte(`{"issue": {"number": 1}, "repository": {"full_name": "a/b"}}`),
		"missing number": []byte(`{"action": "opened", "repository": {"full_name": "a/b"}}`),
		"missing repo":   []byte(`{"action": "opened", "issue": {"number": 1}}`),
	}
	for name, body := range cases {
		if _, err := ParseIssueEvent(body); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("%s: expected ErrMalformedPayload, got %v", name, err)
		}
	}
}

func TestVerifySignature(t *testing.T) {
	secret := "hush"
	body := []byte(`{"action":"opened"}`)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	valid := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature(secret, body, valid) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature(secret, body, "sha256=deadbeef") {
		t.Fatal("wrong signature accepted")
	}
	if VerifySignature(secret, body, hex.EncodeToString(mac.Sum(nil))) {
		t.Fatal("signature without sha256= prefix accepted")
	}
	if VerifySignature(secret, []byte("tampered"), valid) {
		t.Fatal("signature over different body accepted")
	}
	if !VerifySignature("", body, "") {
		t.Fatal("empty secret must disable the check")
	}
}
