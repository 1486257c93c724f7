package db

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wesm/kanbanpulse/internal/timeutil"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func ts(t time.Time) string {
	return timeutil.Format(t)
}

func mustBoard(t *testing.T, db *DB, id, name string) {
	t.Helper()
	if err := db.UpsertBoard(Board{ID: id, Name: name}); err != nil {
		t.Fatalf("UpsertBoard(%s) failed: %v", id, err)
	}
}

func mustColumn(t *testing.T, db *DB, c Column) {
	t.Helper()
	if err := db.UpsertColumn(c); err != nil {
		t.Fatalf("UpsertColumn(%s) failed: %v", c.ID, err)
	}
}

func mustCard(t *testing.T, db *DB, c Card) {
	t.Helper()
	if err := db.UpsertCard(c); err != nil {
		t.Fatalf("UpsertCard(%s) failed: %v", c.ID, err)
	}
}

func mustAgent(t *testing.T, db *DB, id, name string) {
	t.Helper()
	err := db.UpsertAgent(Agent{ID: id, Name: name, Executor: name})
	if err != nil {
		t.Fatalf("UpsertAgent(%s) failed: %v", id, err)
	}
}

func mustAttempt(t *testing.T, db *DB, a Attempt) {
	t.Helper()
	if a.UpdatedAt == "" {
		a.UpdatedAt = a.CreatedAt
	}
	if err := db.UpsertAttempt(a); err != nil {
		t.Fatalf("UpsertAttempt(%s) failed: %v", a.ID, err)
	}
}

// standardColumns seeds the four canonical columns for a board and
// returns the column IDs keyed by canonical key.
func standardColumns(t *testing.T, db *DB, boardID string) map[string]string {
	t.Helper()
	cols := []struct {
		key, title string
	}{
		{"backlog", "Backlog"},
		{"in_progress", "In Progress"},
		{"review", "Review"},
		{"done", "Done"},
	}
	ids := make(map[string]string, len(cols))
	for i, c := range cols {
		id := boardID + "-col-" + c.key
		mustColumn(t, db, Column{
			ID: id, BoardID: boardID,
			Key: c.key, Title: c.title, Position: i,
		})
		ids[c.key] = id
	}
	return ids
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	database.Close()
}

func TestMakeDSN(t *testing.T) {
	dsn := makeDSN("/tmp/x.db", true)
	if !strings.Contains(dsn, "mode=ro") {
		t.Errorf("read-only DSN missing mode=ro: %s", dsn)
	}
	if !strings.Contains(dsn, "_journal_mode=WAL") {
		t.Errorf("DSN missing WAL: %s", dsn)
	}

	dsn = makeDSN("/tmp/x.db", false)
	if strings.Contains(dsn, "mode=ro") {
		t.Errorf("writer DSN should not be read-only: %s", dsn)
	}
}

func TestQueryChunked(t *testing.T) {
	ids := make([]string, maxSQLVars+7)
	for i := range ids {
		ids[i] = "id"
	}

	var sizes []int
	err := queryChunked(ids, func(chunk []string) error {
		sizes = append(sizes, len(chunk))
		return nil
	})
	if err != nil {
		t.Fatalf("queryChunked failed: %v", err)
	}
	if len(sizes) != 2 || sizes[0] != maxSQLVars || sizes[1] != 7 {
		t.Errorf("unexpected chunk sizes: %v", sizes)
	}
}

func TestWherePreds(t *testing.T) {
	if got := wherePreds(nil); got != "1=1" {
		t.Errorf("wherePreds(nil) = %q", got)
	}
	got := wherePreds([]string{"a = ?", "b <= ?"})
	if got != "a = ? AND b <= ?" {
		t.Errorf("wherePreds = %q", got)
	}
}
