package githubsync

import (
	"context"
	"errors"
	"testing"

	"teamboard/internal/models"
)

func TestImportAllSkipsLinkedIssues(t *testing.T) {
	fix := newSyncFixture(t)
	ctx := context.Background()
	fix.seedScope(t, "acme/board", "team-1", true, "")

	fix.seedTask(t, "tk-imp001", models.StatusWaiting, "")
	fix.seedMapping(t, "tk-imp001", "acme/board", 1, models.SyncSynced)

	fix.client.openIssues = []Issue{
		{Number: 1, Title: "Already linked"},
		{Number: 2, Title: "[Bug] Fresh one"},
		{Number: 3, Title: "[Bug] Another fresh one"},
	}

	result, err := fix.engine.ImportAll(ctx, "acme/board")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Succeeded != 2 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// Both fresh issues share the [Bug] prefix: one batch, one column.
	first := taskIDForIssue(t, fix.store, "acme/board", 2)
	second := taskIDForIssue(t, fix.store, "acme/board", 3)
	taskA, err := fix.store.GetTask(ctx, first)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	taskB, err := fix.store.GetTask(ctx, second)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if taskA.ColumnID == "" || taskA.ColumnID != taskB.ColumnID {
		t.Fatalf("expected shared Bug column, got %q and %q", taskA.ColumnID, taskB.ColumnID)
	}
}

func TestImportAllRequiresCredentials(t *testing.T) {
	fix := newSyncFixture(t)

	_, err := fix.engine.ImportAll(context.Background(), "acme/unknown")
	var noCreds *NoCredentialsError
	if !errors.As(err, &noCreds) {
		t.Fatalf("expected NoCredentialsError, got %v", err)
	}
}

func TestExportAllSkipsLinkedTasks(t *testing.T) {
	fix := newSyncFixture(t)
	ctx := context.Background()
	fix.seedScope(t, "acme/board", "team-1", true, "")

	fix.seedTask(t, "tk-exp001", models.StatusWaiting, "")
	fix.seedTask(t, "tk-exp002", models.StatusWaiting, "")
	fix.seedMapping(t, "tk-exp002", "acme/board", 9, models.SyncSynced)

	result, err := fix.engine.ExportAll(ctx, "acme/board")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Succeeded != 1 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	mapping, err := fix.store.GetMappingByTask(ctx, "tk-exp001")
	if err != nil {
		t.Fatalf("get mapping: %v", err)
	}
	if mapping == nil {
		t.Fatal("expected exported task to be linked")
	}
	if len(fix.client.created) != 1 {
		t.Fatalf("expected one issue created, got %d", len(fix.client.created))
	}
}

func TestExportAllRecordsFailures(t *testing.T) {
	fix := newSyncFixture(t)
	ctx := context.Background()
	fix.seedScope(t, "acme/board", "team-1", true, "")
	fix.seedTask(t, "tk-exp003", models.StatusWaiting, "")
	fix.client.createErr = &ExternalError{Op: "POST /repos/acme/board/issues", Status: 503, Err: errors.New("unavailable")}

	result, err := fix.engine.ExportAll(ctx, "acme/board")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Failed != 1 || len(result.Errors) != 1 {
		t.Fatalf("expected recorded failure, got %+v", result)
	}
}
