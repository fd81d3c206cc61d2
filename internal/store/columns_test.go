package store

import (
	"context"
	"testing"
	"time"

	"teamboard/internal/models"
)

func TestColumnsCreateListAndDefault(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	cols := []*models.Column{
		{ID: "co-aaa001", TeamID: "team-1", Name: "Backlog", IsDefault: true, Position: 0, CreatedAt: now},
		{ID: "co-aaa002", TeamID: "team-1", Name: "Bugs", Position: 1, CreatedAt: now},
		{ID: "co-aaa003", TeamID: "team-2", Name: "Other", Position: 0, CreatedAt: now},
	}
	for _, col := range cols {
		if err := st.CreateColumn(ctx, col); err != nil {
			t.Fatalf("create %s: %v", col.ID, err)
		}
	}

	got, err := st.ListColumns(ctx, "team-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 columns for team-1, got %d", len(got))
	}
	if got[0].Name != "Backlog" || got[1].Name != "Bugs" {
		t.Fatalf("expected position ordering, got %+v", got)
	}

	def, err := st.GetDefaultColumn(ctx, "team-1")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if def == nil || def.ID != "co-aaa001" {
		t.Fatalf("expected co-aaa001 as default, got %+v", def)
	}

	def, err = st.GetDefaultColumn(ctx, "team-2")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if def != nil {
		t.Fatalf("team-2 has no default column, got %+v", def)
	}
}

func TestPrefixRules(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	col := &models.Column{ID: "co-bbb001", TeamID: "team-1", Name: "Bugs", CreatedAt: now}
	if err := st.CreateColumn(ctx, col); err != nil {
		t.Fatalf("create column: %v", err)
	}

	rule := &models.ColumnPrefixRule{ID: "cr-aaa001", TeamID: "team-1", ColumnID: "co-bbb001", Prefix: "[Bug]"}
	if err := st.CreatePrefixRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	// Same prefix for the same team must be rejected.
	dup := &models.ColumnPrefixRule{ID: "cr-aaa002", TeamID: "team-1", ColumnID: "co-bbb001", Prefix: "[Bug]"}
	if err := st.CreatePrefixRule(ctx, dup); err == nil {
		t.Fatal("expected unique constraint on (team_id, prefix)")
	}

	rules, err := st.ListPrefixRules(ctx, "team-1")
	if err != nil {
		t.Fatalf("list rules: %v", err)
	}
	if len(rules) != 1 || rules[0].Prefix != "[Bug]" {
		t.Fatalf("unexpected rules: %+v", rules)
	}
}
