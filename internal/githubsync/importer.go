package githubsync

import (
	"context"
	"fmt"

	"teamboard/internal/models"
	"teamboard/internal/store"
)

// BulkResult summarizes a scope-wide import or export.
type BulkResult struct {
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// ImportAll pulls every open issue in a scope into local tasks. Issues
// already linked are skipped. One router serves the whole batch so issues
// sharing a new title prefix land in the same newly created column.
func (e *Engine) ImportAll(ctx context.Context, scope string) (*BulkResult, error) {
	result := &BulkResult{}

	cred, err := e.sync.GetScopeCredential(ctx, scope)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, &NoCredentialsError{Scope: scope}
	}
	token, err := e.scopeToken(ctx, scope)
	if err != nil {
		return nil, err
	}

	issues, err := e.client.ListOpenIssues(ctx, token, scope)
	if err != nil {
		return nil, err
	}

	router, err := NewRouter(ctx, e.board, cred.TeamID)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	for i := range issues {
		issue := &issues[i]

		existing, err := e.sync.GetMappingByIssue(ctx, scope, issue.Number)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		task, err := e.createTaskFromIssue(ctx, router, cred.TeamID, scope, issue, now)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("issue #%d: %v", issue.Number, err))
			continue
		}

		if err := e.sync.AppendSyncLog(ctx, &models.SyncLogEntry{
			TaskID:    task.ID,
			Scope:     scope,
			Direction: models.DirectionPull,
			Action:    models.ActionCreate,
			NewValue:  fmt.Sprintf("#%d", issue.Number),
			Result:    models.ResultSuccess,
			Trigger:   models.TriggerManual,
			CreatedAt: now,
		}); err != nil {
			return nil, err
		}
		result.Succeeded++
	}

	return result, nil
}

// ExportAll creates issues for every unlinked task on the scope's team.
// Already-linked tasks are skipped.
func (e *Engine) ExportAll(ctx context.Context, scope string) (*BulkResult, error) {
	result := &BulkResult{}

	cred, err := e.sync.GetScopeCredential(ctx, scope)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, &NoCredentialsError{Scope: scope}
	}

	tasks, err := e.tasks.ListTasks(ctx, store.ListFilter{TeamID: cred.TeamID})
	if err != nil {
		return nil, err
	}

	for _, task := range tasks {
		existing, err := e.sync.GetMappingByTask(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			result.Skipped++
			continue
		}
		if _, err := e.CreateFromTask(ctx, task.ID, scope, models.TriggerManual); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("task %s: %v", task.ID, err))
			continue
		}
		result.Succeeded++
	}

	return result, nil
}
