package store

import (
	"context"
	"testing"

	"teamboard/internal/models"
)

func TestStoreInfo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for i, status := range []models.WorkflowStatus{
		models.StatusWaiting, models.StatusWaiting, models.StatusDone,
	} {
		task := testTask("tk-info0"+string(rune('1'+i)), status)
		if err := st.CreateTask(ctx, task, nil, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	info, err := st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion < 2 {
		t.Fatalf("expected schema version >= 2, got %d", info.SchemaVersion)
	}
	if info.TotalTasks != 3 {
		t.Fatalf("expected 3 tasks, got %d", info.TotalTasks)
	}
	if info.TaskCounts["waiting"] != 2 || info.TaskCounts["done"] != 1 {
		t.Fatalf("unexpected counts: %+v", info.TaskCounts)
	}
}
