package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDiskStore_SaveLoad(t *testing.T) {
	store := NewDiskStore(filepath.Join(t.TempDir(), "runs"))
	run := sampleRun()
	run.StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Save(run); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load("run-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Suites) != 3 || got.Suites[0].Numbers["accuracy"] != 0.9781 {
		t.Errorf("round trip lost data: %+v", got)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("StartedAt = %v", got.StartedAt)
	}
}

func TestDiskStore_Prefix(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	for _, id := range []string{"abc123", "abd456"} {
		if err := store.Save(&RunResult{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Load("abc")
	if err != nil {
		t.Fatalf("Load(prefix): %v", err)
	}
	if got.ID != "abc123" {
		t.Errorf("ID = %q", got.ID)
	}
	if _, err := store.Load("ab"); err == nil {
		t.Error("ambiguous prefix should fail")
	}
	if _, err := store.Load("zzz"); err == nil {
		t.Error("unknown run should fail")
	}
	if _, err := store.Load("../etc/passwd"); err == nil {
		t.Error("path traversal should fail")
	}
}

func TestDiskStore_List(t *testing.T) {
	dir := t.TempDir()
	store := NewDiskStore(dir)
	for _, id := range []string{"old", "new"} {
		if err := store.Save(&RunResult{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "old.json"), past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "new" || ids[1] != "old" {
		t.Errorf("List() = %v, want [new old]", ids)
	}
}

func TestDiskStore_TempDir(t *testing.T) {
	store := NewDiskStore("")
	if err := store.Save(&RunResult{ID: "tmp"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(store.dir) })
	if _, err := store.Load("tmp"); err != nil {
		t.Errorf("Load: %v", err)
	}
}
