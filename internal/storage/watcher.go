package storage

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Export event types, "export." followed by the callback kind.
const (
	EventExportCreated = "export.created"
	EventExportUpdated = "export.updated"
	EventExportDeleted = "export.deleted"
)

// ExportChanged is the payload of export events.
type ExportChanged struct {
	Name string `json:"name"`
}

// EventType maps a watcher kind to its event type.
func EventType(kind string) string {
	return "export." + kind
}

// settleDelay is how long the directory must stay quiet before pending
// changes are reported.
var settleDelay = 200 * time.Millisecond

// EventCallback is called for every change to an export file.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, name string)

// Watch starts an fsnotify watcher on root and reports export file changes
// until ctx is cancelled. Temporary files written by FS.Write are ignored;
// their rename into place arrives as a create on the final name.
//
// Changes are debounced: bursts of events for the same name collapse into
// one callback once root has been quiet for settleDelay.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]string)
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	schedule := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settleDelay)
			settleCh = settleTimer.C
			return
		}
		if !settleTimer.Stop() {
			select {
			case <-settleTimer.C:
			default:
			}
		}
		settleTimer.Reset(settleDelay)
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				kind := pending[name]
				logger.Debug("watcher: export changed", slog.String("name", name), slog.String("op", kind))
				if cb != nil {
					cb(kind, name)
				}
			}
			clear(pending)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if !isExport(name) {
				continue
			}

			var kind string
			switch {
			case ev.Op&fsnotify.Create != 0:
				kind = "created"
			case ev.Op&fsnotify.Write != 0:
				kind = "updated"
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				kind = "deleted"
			default:
				continue
			}
			pending[name] = mergeKind(pending[name], kind)
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// mergeKind folds a new change into the pending one for the same name.
// A write after a create is still a create; anything else takes the latest kind.
func mergeKind(prev, next string) string {
	if prev == "created" && next == "updated" {
		return prev
	}
	return next
}
