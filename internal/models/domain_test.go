package models

import "testing"

func TestParseWorkflowStatus(t *testing.T) {
	got, err := ParseWorkflowStatus(" IN_PROGRESS ")
	if err != nil {
		t.Fatalf("parse status: %v", err)
	}
	if got != StatusInProgress {
		t.Fatalf("expected %q, got %q", StatusInProgress, got)
	}

	if _, err := ParseWorkflowStatus("invalid"); err == nil {
		t.Fatal("expected invalid status error")
	}
	if _, err := ParseWorkflowStatus(""); err == nil {
		t.Fatal("expected error for empty status")
	}
}

func TestParsePriority(t *testing.T) {
	got, err := ParsePriority(" URGENT ")
	if err != nil {
		t.Fatalf("parse priority: %v", err)
	}
	if got != PriorityUrgent {
		t.Fatalf("expected %q, got %q", PriorityUrgent, got)
	}

	// Empty means unset, not invalid.
	got, err = ParsePriority("")
	if err != nil {
		t.Fatalf("parse empty priority: %v", err)
	}
	if got != "" {
		t.Fatalf("expected unset priority, got %q", got)
	}

	if _, err := ParsePriority("blocker"); err == nil {
		t.Fatal("expected invalid priority error")
	}
}

func TestIsSettled(t *testing.T) {
	for _, status := range []WorkflowStatus{StatusDone, StatusRejected, StatusDeclined} {
		if !status.IsSettled() {
			t.Fatalf("expected %q to be settled", status)
		}
	}
	for _, status := range []WorkflowStatus{StatusWaiting, StatusInProgress, StatusReview} {
		if status.IsSettled() {
			t.Fatalf("expected %q not to be settled", status)
		}
	}
}
