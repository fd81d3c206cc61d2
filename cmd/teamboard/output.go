package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"teamboard/internal/api"
)

func writeJSON(payload any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeTaskList(tasks []api.TaskResponse) error {
	for _, task := range tasks {
		if err := writePlain("%s\n", formatTaskLine(task)); err != nil {
			return err
		}
	}
	return nil
}

func writeTaskDetail(task api.TaskResponse) error {
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("status: %s", task.Status),
		fmt.Sprintf("team_id: %s", task.TeamID),
		fmt.Sprintf("created_at: %s", formatTime(task.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(task.UpdatedAt)),
	}

	if task.Priority != "" {
		lines = append(lines, fmt.Sprintf("priority: %s", task.Priority))
	}
	if task.ColumnID != "" {
		lines = append(lines, fmt.Sprintf("column_id: %s", task.ColumnID))
	}
	if task.CreatorID != "" {
		lines = append(lines, fmt.Sprintf("creator_id: %s", task.CreatorID))
	}
	if task.DueDate != nil {
		lines = append(lines, fmt.Sprintf("due_date: %s", task.DueDate.Format("2006-01-02")))
	}
	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", task.Description))
	}
	if task.RejectionReason != "" {
		lines = append(lines, fmt.Sprintf("rejection_reason: %s (by %s)", task.RejectionReason, task.RejectedBy))
	}

	if len(task.Assignees) > 0 {
		lines = append(lines, "assignees:")
		for _, a := range task.Assignees {
			lines = append(lines, fmt.Sprintf("  - %s accepted=%t completed=%t", a.MemberID, a.Accepted, a.Completed))
		}
	}
	if len(task.Verifiers) > 0 {
		lines = append(lines, "verifiers:")
		for _, v := range task.Verifiers {
			lines = append(lines, fmt.Sprintf("  - %s approved=%t", v.MemberID, v.Approved))
		}
	}
	if task.Mapping != nil {
		lines = append(lines, fmt.Sprintf("issue: %s#%d [%s]",
			task.Mapping.Scope, task.Mapping.IssueNumber, task.Mapping.SyncStatus))
	}

	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatTaskLine(task api.TaskResponse) string {
	marker := "○"
	switch task.Status {
	case "done":
		marker = "●"
	case "rejected", "declined":
		marker = "✗"
	}
	line := fmt.Sprintf("%s %s [%s] - %s", marker, task.ID, task.Status, task.Title)
	if task.Priority != "" {
		line += fmt.Sprintf(" (%s)", task.Priority)
	}
	return line
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
