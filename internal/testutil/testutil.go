// Package testutil provides shared test helpers for setting up stores and export directories.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/pomodoro/internal/kv"
	"github.com/starford/pomodoro/internal/storage"
)

// TestStore creates a temporary SQLite key-value store that is automatically cleaned up.
func TestStore(t *testing.T) *kv.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "pomodoro-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store, err := kv.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestExports creates a temporary export directory with a storage.FS.
func TestExports(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// QuietLogger discards everything below error level.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
