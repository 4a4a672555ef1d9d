package workers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupRemovesOnlyStaleTempFiles(t *testing.T) {
	dataDir := t.TempDir()
	tmpDir := filepath.Join(dataDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		t.Fatal(err)
	}

	stale := filepath.Join(tmpDir, "old.tmp")
	fresh := filepath.Join(tmpDir, "new.tmp")
	keeper := filepath.Join(tmpDir, "results.json")
	for _, f := range []string{stale, fresh, keeper} {
		if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	worker := NewCleanupWorker(dataDir, 24*time.Hour)
	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp file not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh temp file removed")
	}
	if _, err := os.Stat(keeper); err != nil {
		t.Error("non-temp file removed")
	}
}

func TestCleanupMissingDirectory(t *testing.T) {
	worker := NewCleanupWorker(t.TempDir(), time.Hour)
	if err := worker.Run(context.Background()); err != nil {
		t.Fatalf("missing tmp dir must not error: %v", err)
	}
}
