// Package storage stores exported note blobs in a directory on the host.
package storage

import "github.com/starford/pomodoro/internal/models"

// Provider is the interface for export directory operations.
type Provider interface {
	// List returns metadata for every exported file, newest first.
	List() ([]models.ExportMetadata, error)
	// Stat returns metadata for the file name.
	Stat(name string) (models.ExportMetadata, error)
	// Read returns the raw bytes of the file name.
	Read(name string) ([]byte, error)
	// Write atomically writes content to name.
	Write(name string, content []byte) error
	// Delete removes the file name.
	Delete(name string) error
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
