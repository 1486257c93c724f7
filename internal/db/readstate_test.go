package db

import (
	"context"
	"fmt"
	"testing"
)

func TestSetReadAndLoadReadMap(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SetRead(ctx, "att-1", true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	if err := db.SetRead(ctx, "att-2", false); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}

	m, err := db.LoadReadMap(ctx, []string{"att-1", "att-2", "att-missing"})
	if err != nil {
		t.Fatalf("LoadReadMap failed: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(m), m)
	}
	if !m["att-1"] {
		t.Errorf("att-1 should be read")
	}
	if m["att-2"] {
		t.Errorf("att-2 should be unread")
	}
	if _, ok := m["att-missing"]; ok {
		t.Errorf("reads must not materialize rows for unknown ids")
	}
}

func TestSetReadToggles(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SetRead(ctx, "att-1", true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	if err := db.SetRead(ctx, "att-1", false); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}

	m, err := db.LoadReadMap(ctx, []string{"att-1"})
	if err != nil {
		t.Fatalf("LoadReadMap failed: %v", err)
	}
	if read, ok := m["att-1"]; !ok || read {
		t.Errorf("toggle did not stick: %v", m)
	}
}

func TestLoadReadMapEmptyIDs(t *testing.T) {
	db := testDB(t)

	m, err := db.LoadReadMap(context.Background(), nil)
	if err != nil {
		t.Fatalf("LoadReadMap failed: %v", err)
	}
	if len(m) != 0 {
		t.Errorf("expected empty map, got %v", m)
	}
}

func TestLoadReadMapChunksLargeInputs(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ids := make([]string, maxSQLVars+10)
	for i := range ids {
		ids[i] = fmt.Sprintf("att-%d", i)
	}
	if err := db.MarkManyRead(ctx, ids); err != nil {
		t.Fatalf("MarkManyRead failed: %v", err)
	}

	m, err := db.LoadReadMap(ctx, ids)
	if err != nil {
		t.Fatalf("LoadReadMap failed: %v", err)
	}
	if len(m) != len(ids) {
		t.Fatalf("expected %d entries, got %d", len(ids), len(m))
	}
	for _, id := range ids {
		if !m[id] {
			t.Fatalf("%s not marked read", id)
		}
	}
}

func TestMarkManyReadInsertsAndUpdates(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// att-1 exists as unread; att-2 has no row yet.
	if err := db.SetRead(ctx, "att-1", false); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	if err := db.MarkManyRead(ctx, []string{"att-1", "att-2"}); err != nil {
		t.Fatalf("MarkManyRead failed: %v", err)
	}

	m, err := db.LoadReadMap(ctx, []string{"att-1", "att-2"})
	if err != nil {
		t.Fatalf("LoadReadMap failed: %v", err)
	}
	if !m["att-1"] || !m["att-2"] {
		t.Errorf("not all ids marked read: %v", m)
	}
}

func TestMarkManyReadEmpty(t *testing.T) {
	db := testDB(t)
	if err := db.MarkManyRead(context.Background(), nil); err != nil {
		t.Fatalf("MarkManyRead(nil) failed: %v", err)
	}
}

func TestMarkAllRead(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SetRead(ctx, "att-1", false); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	if err := db.SetRead(ctx, "att-2", false); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}
	if err := db.SetRead(ctx, "att-3", true); err != nil {
		t.Fatalf("SetRead failed: %v", err)
	}

	n, err := db.MarkAllRead(ctx)
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if n != 2 {
		t.Errorf("MarkAllRead = %d, want 2 (already-read rows untouched)", n)
	}

	// Nothing left to flip.
	n, err = db.MarkAllRead(ctx)
	if err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second MarkAllRead = %d, want 0", n)
	}
}
