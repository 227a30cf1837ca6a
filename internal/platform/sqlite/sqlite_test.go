package sqlite

import (
	"path/filepath"
	"testing"
)

func TestOpen_ProvisionsSchema(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, table := range []string{"listings", "runs"} {
		var name string
		err := db.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")

	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		_ = db.Close()
	}
}

func TestOpen_Unreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "jobs.db")
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for unopenable path")
	}
}
