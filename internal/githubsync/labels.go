package githubsync

import (
	"strings"

	"teamboard/internal/models"
)

const (
	statusLabelPrefix   = "status:"
	priorityLabelPrefix = "priority:"
)

// LabelSpec describes one label teamboard manages on the external side.
type LabelSpec struct {
	Name        string
	Color       string
	Description string
}

// statusLabels and priorityLabels are the bidirectional mapping tables
// between internal enums and GitHub label names. Both directions are
// injective; labels outside these tables are ignored, never an error.
// The tables are package constants and must not be mutated at runtime.
var statusLabels = map[models.WorkflowStatus]LabelSpec{
	models.StatusWaiting:    {Name: "status:waiting", Color: "ededed", Description: "Waiting for assignees to accept"},
	models.StatusInProgress: {Name: "status:in-progress", Color: "1d76db", Description: "All assignees accepted, work ongoing"},
	models.StatusReview:     {Name: "status:review", Color: "fbca04", Description: "Completed, waiting for verifier approval"},
	models.StatusDone:       {Name: "status:done", Color: "0e8a16", Description: "Approved and finished"},
	models.StatusRejected:   {Name: "status:rejected", Color: "d93f0b", Description: "Rejected in review"},
	models.StatusDeclined:   {Name: "status:declined", Color: "b60205", Description: "Declined by an assignee"},
}

var priorityLabels = map[models.Priority]LabelSpec{
	models.PriorityLow:    {Name: "priority:low", Color: "c2e0c6", Description: "Low priority"},
	models.PriorityMedium: {Name: "priority:medium", Color: "fef2c0", Description: "Medium priority"},
	models.PriorityHigh:   {Name: "priority:high", Color: "f9d0c4", Description: "High priority"},
	models.PriorityUrgent: {Name: "priority:urgent", Color: "e11d21", Description: "Urgent"},
}

var labelToStatus = func() map[string]models.WorkflowStatus {
	out := make(map[string]models.WorkflowStatus, len(statusLabels))
	for status, spec := range statusLabels {
		out[spec.Name] = status
	}
	return out
}()

var labelToPriority = func() map[string]models.Priority {
	out := make(map[string]models.Priority, len(priorityLabels))
	for priority, spec := range priorityLabels {
		out[spec.Name] = priority
	}
	return out
}()

// StatusLabel returns the label name for a workflow status.
func StatusLabel(status models.WorkflowStatus) string {
	return statusLabels[status].Name
}

// PriorityLabel returns the label name for a priority, or "" for unset.
func PriorityLabel(priority models.Priority) string {
	return priorityLabels[priority].Name
}

// StatusFromLabel maps a label name back to a workflow status.
func StatusFromLabel(name string) (models.WorkflowStatus, bool) {
	status, ok := labelToStatus[strings.ToLower(strings.TrimSpace(name))]
	return status, ok
}

// PriorityFromLabel maps a label name back to a priority.
func PriorityFromLabel(name string) (models.Priority, bool) {
	priority, ok := labelToPriority[strings.ToLower(strings.TrimSpace(name))]
	return priority, ok
}

// StatusFromLabels scans a full label set for a status label.
func StatusFromLabels(names []string) (models.WorkflowStatus, bool) {
	for _, name := range names {
		if status, ok := StatusFromLabel(name); ok {
			return status, true
		}
	}
	return "", false
}

// PriorityFromLabels scans a full label set for a priority label.
func PriorityFromLabels(names []string) (models.Priority, bool) {
	for _, name := range names {
		if priority, ok := PriorityFromLabel(name); ok {
			return priority, true
		}
	}
	return "", false
}

// IsStatusLabel reports whether a label belongs to the status category.
func IsStatusLabel(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), statusLabelPrefix)
}

// IsPriorityLabel reports whether a label belongs to the priority category.
func IsPriorityLabel(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), priorityLabelPrefix)
}

// ManagedLabels returns every label teamboard expects to exist on a
// repository, for EnsureLabels.
func ManagedLabels() []LabelSpec {
	out := make([]LabelSpec, 0, len(statusLabels)+len(priorityLabels))
	for _, status := range []models.WorkflowStatus{
		models.StatusWaiting, models.StatusInProgress, models.StatusReview,
		models.StatusDone, models.StatusRejected, models.StatusDeclined,
	} {
		out = append(out, statusLabels[status])
	}
	for _, priority := range []models.Priority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent,
	} {
		out = append(out, priorityLabels[priority])
	}
	return out
}

// desiredLabels returns the label names a task should carry externally.
func desiredLabels(task *models.Task) []string {
	labels := []string{StatusLabel(task.Status)}
	if task.Priority != "" {
		labels = append(labels, PriorityLabel(task.Priority))
	}
	return labels
}
