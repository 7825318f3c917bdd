package state

import (
	"path/filepath"
	"testing"

	"tradebot/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tradebot.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_EmptyLoad(t *testing.T) {
	store := newTestSQLiteStore(t)
	set, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d ids", set.Len())
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)

	set := domain.NewProcessedSet()
	set.Add("1001")
	set.Add("1002")
	if err := store.Save(set); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 || !loaded.Has("1001") || !loaded.Has("1002") {
		t.Fatalf("unexpected set after round trip: %v", loaded.IDs())
	}
}

func TestSQLiteStore_SaveReplacesContents(t *testing.T) {
	store := newTestSQLiteStore(t)

	first := domain.NewProcessedSet()
	first.Add("a")
	if err := store.Save(first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := domain.NewProcessedSet()
	second.Add("b")
	second.Add("c")
	if err := store.Save(second); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Has("a") || loaded.Len() != 2 {
		t.Fatalf("save did not replace contents: %v", loaded.IDs())
	}
}
