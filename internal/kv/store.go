// Package kv provides the key-value persistence used by the pomodoro components.
package kv

import "context"

// Persisted keys. Each component owns its keys exclusively.
const (
	KeyTimerSettings  = "timer.settings"
	KeyNoteText       = "note.text"
	KeyNoteAutoSave   = "note.autoSaveEnabled"
	KeyTasksList      = "tasks.list"
	KeyTasksFocusedID = "tasks.focusedId"
)

// Entry is a single mutation applied by Store.Write.
// When Delete is set the key is removed and Value is ignored.
type Entry struct {
	Key    string
	Value  string
	Delete bool
}

// Put returns an entry that stores value under key.
func Put(key, value string) Entry {
	return Entry{Key: key, Value: value}
}

// Remove returns an entry that deletes key.
func Remove(key string) Entry {
	return Entry{Key: key, Delete: true}
}

// Store is the interface for key-value persistence.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Write applies all entries atomically: either every entry is visible
	// afterwards or none is.
	Write(ctx context.Context, entries ...Entry) error
	Close() error
}

// Verify implementations satisfy Store at compile time.
var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Memory)(nil)
)
