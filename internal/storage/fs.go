package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/pomodoro/internal/checksum"
	"github.com/starford/pomodoro/internal/models"
)

// exportExts lists the file extensions treated as exports.
var exportExts = map[string]bool{".md": true, ".txt": true}

// FS implements Provider backed by a flat directory.
type FS struct {
	root string // absolute path to the export directory
}

// NewFS creates a new FS provider rooted at the given directory, creating it
// if needed.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute export directory.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves name inside the root. Exports are flat, so any name
// with a directory component is rejected.
func (f *FS) safePath(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid name: %q", name)
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("storage: name escapes export dir: %s", name)
	}
	return filepath.Join(f.root, name), nil
}

// List returns metadata for every export file, newest first.
func (f *FS) List() ([]models.ExportMetadata, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := []models.ExportMetadata{}
	for _, e := range entries {
		if e.IsDir() || !isExport(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		m, err := f.metadata(info)
		if err != nil {
			return nil, fmt.Errorf("storage: list: %w", err)
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].Name > out[j].Name
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Stat returns the metadata of a single export.
func (f *FS) Stat(name string) (models.ExportMetadata, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return models.ExportMetadata{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.ExportMetadata{}, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	if info.IsDir() {
		return models.ExportMetadata{}, fmt.Errorf("storage: stat %s: is a directory", name)
	}
	return f.metadata(info)
}

func (f *FS) metadata(info os.FileInfo) (models.ExportMetadata, error) {
	sum, err := checksum.File(filepath.Join(f.root, info.Name()))
	if err != nil {
		return models.ExportMetadata{}, err
	}
	return models.ExportMetadata{
		Name:      info.Name(),
		Size:      info.Size(),
		Checksum:  sum,
		UpdatedAt: info.ModTime(),
	}, nil
}

// Read returns the raw bytes of an export.
func (f *FS) Read(name string) ([]byte, error) {
	abs, err := f.safePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", name, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(name string, content []byte) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".pomodoro-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes an export.
func (f *FS) Delete(name string) error {
	abs, err := f.safePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}

func isExport(name string) bool {
	return !strings.HasPrefix(name, ".") && exportExts[strings.ToLower(filepath.Ext(name))]
}
