package index

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/starford/pomodoro/internal/models"
	"github.com/starford/pomodoro/internal/parser"
	"github.com/starford/pomodoro/internal/storage"
)

// Sync walks the export directory and brings the index up to date:
//   - new/changed exports are parsed and upserted
//   - exports removed from disk are deleted from the index
func Sync(db ExportIndex, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Name] = struct{}{}

		if checksums[m.Name] == m.Checksum {
			continue
		}
		if err := indexExport(db, store, m); err != nil {
			logger.Warn("sync: index failed", slog.String("name", m.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("name", m.Name))
		}
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := disk[name]; !ok {
			if err := db.Delete(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("name", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("name", name))
			}
		}
	}

	return nil
}

// Apply updates the index for a single watcher event. kind is one of
// "created", "updated", "deleted".
func Apply(db ExportIndex, store storage.Provider, kind, name string) error {
	if kind == "deleted" {
		return db.Delete(name)
	}
	m, err := store.Stat(name)
	if err != nil {
		// Gone again before we got to it.
		if errors.Is(err, fs.ErrNotExist) {
			return db.Delete(name)
		}
		return err
	}
	return indexExport(db, store, m)
}

func indexExport(db ExportIndex, store storage.Provider, m models.ExportMetadata) error {
	data, err := store.Read(m.Name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return db.Delete(m.Name)
		}
		return err
	}
	outline := parser.Parse(string(data))
	return db.Upsert(ExportRow{
		Name:      m.Name,
		Title:     outline.Title,
		Checksum:  m.Checksum,
		Tags:      outline.Tags,
		UpdatedAt: m.UpdatedAt,
	}, outline.Body)
}
