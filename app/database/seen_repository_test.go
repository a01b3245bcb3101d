package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func TestSeenRepositoryIsNew(t *testing.T) {
	repo := NewSeenRepository(newTestDB(t))

	isNew, err := repo.IsNew("ddlc_news", "abc")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !isNew {
		t.Error("Expected unseen id to be new")
	}

	if err := repo.MarkSeen("ddlc_news", "abc"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	isNew, _ = repo.IsNew("ddlc_news", "abc")
	if isNew {
		t.Error("Expected seen id to not be new")
	}

	isNew, _ = repo.IsNew("pclub_twitter", "abc")
	if !isNew {
		t.Error("Expected same id under different key to be new")
	}
}

func TestSeenRepositoryMarkSeenIdempotent(t *testing.T) {
	repo := NewSeenRepository(newTestDB(t))

	if err := repo.MarkSeen("key", "id"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := repo.MarkSeen("key", "id"); err != nil {
		t.Fatalf("Expected marking twice to be a no-op, got: %v", err)
	}

	counts, err := repo.Counts()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if counts["key"] != 1 {
		t.Errorf("Expected count 1 after duplicate marks, got %d", counts["key"])
	}
}

func TestSeenRepositoryMarkSeenIfNew(t *testing.T) {
	repo := NewSeenRepository(newTestDB(t))

	wasNew, err := repo.MarkSeenIfNew("key", "id")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !wasNew {
		t.Error("Expected first mark to report new")
	}

	wasNew, _ = repo.MarkSeenIfNew("key", "id")
	if wasNew {
		t.Error("Expected second mark to report not new")
	}
}

func TestSeenRepositoryCounts(t *testing.T) {
	repo := NewSeenRepository(newTestDB(t))

	repo.MarkSeen("a", "1")
	repo.MarkSeen("a", "2")
	repo.MarkSeen("b", "1")

	counts, err := repo.Counts()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if counts["a"] != 2 {
		t.Errorf("Expected 2 ids under key 'a', got %d", counts["a"])
	}
	if counts["b"] != 1 {
		t.Errorf("Expected 1 id under key 'b', got %d", counts["b"])
	}
}
