package githubsync

import (
	"testing"

	"teamboard/internal/models"
)

func TestStatusLabelRoundTrip(t *testing.T) {
	for _, status := range []models.WorkflowStatus{
		models.StatusWaiting, models.StatusInProgress, models.StatusReview,
		models.StatusDone, models.StatusRejected, models.StatusDeclined,
	} {
		name := StatusLabel(status)
		if name == "" {
			t.Fatalf("no label for status %s", status)
		}
		back, ok := StatusFromLabel(name)
		if !ok || back != status {
			t.Fatalf("label %q maps back to %q, want %q", name, back, status)
		}
	}
}

func TestPriorityLabelRoundTrip(t *testing.T) {
	for _, priority := range []models.Priority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent,
	} {
		name := PriorityLabel(priority)
		back, ok := PriorityFromLabel(name)
		if !ok || back != priority {
			t.Fatalf("label %q maps back to %q, want %q", name, back, priority)
		}
	}
	if PriorityLabel("") != "" {
		t.Fatal("unset priority has no label")
	}
}

func TestLabelScanIgnoresForeignLabels(t *testing.T) {
	names := []string{"bug", "help wanted", "Status:Done", "priority:high"}

	status, ok := StatusFromLabels(names)
	if !ok || status != models.StatusDone {
		t.Fatalf("expected done from mixed-case label, got %q (%v)", status, ok)
	}
	priority, ok := PriorityFromLabels(names)
	if !ok || priority != models.PriorityHigh {
		t.Fatalf("expected high, got %q (%v)", priority, ok)
	}

	if _, ok := StatusFromLabels([]string{"bug", "wontfix"}); ok {
		t.Fatal("foreign labels must not map to a status")
	}
}

func TestLabelCategories(t *testing.T) {
	if !IsStatusLabel("status:review") || IsStatusLabel("priority:low") {
		t.Fatal("status category check wrong")
	}
	if !IsPriorityLabel("Priority:Urgent") || IsPriorityLabel("status:done") {
		t.Fatal("priority category check wrong")
	}
}

func TestManagedLabelsCoverEveryEnum(t *testing.T) {
	labels := ManagedLabels()
	if len(labels) != 10 {
		t.Fatalf("expected 10 managed labels, got %d", len(labels))
	}
	seen := map[string]struct{}{}
	for _, label := range labels {
		if label.Name == "" || label.Color == "" {
			t.Fatalf("incomplete label spec: %+v", label)
		}
		if _, dup := seen[label.Name]; dup {
			t.Fatalf("duplicate managed label %q", label.Name)
		}
		seen[label.Name] = struct{}{}
	}
}

func TestDesiredLabels(t *testing.T) {
	task := &models.Task{Status: models.StatusInProgress, Priority: models.PriorityUrgent}
	got := desiredLabels(task)
	if len(got) != 2 || got[0] != "status:in-progress" || got[1] != "priority:urgent" {
		t.Fatalf("unexpected labels: %v", got)
	}

	task = &models.Task{Status: models.StatusWaiting}
	got = desiredLabels(task)
	if len(got) != 1 || got[0] != "status:waiting" {
		t.Fatalf("unset priority must yield only the status label, got %v", got)
	}
}
