package blobstore

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// RemoveCallback is called when a blob disappears from disk without going
// through Delete (manual cleanup, external tooling, a second process).
type RemoveCallback func(path string)

// Watch starts an fsnotify watcher on the blob root and reports blobs
// removed out of band until ctx is cancelled. Records referencing such a
// blob keep their locator; the callback lets the caller surface the gap
// instead of discovering it on the next download.
//
// New owner directories created at runtime are automatically added to the
// watch list.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb RemoveCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if err := addDirsRecursive(w, absRoot); err != nil {
		return err
	}

	logger.Info("blob watcher: started", slog.String("root", absRoot))

	for {
		select {
		case <-ctx.Done():
			logger.Info("blob watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("blob watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
				}
				continue
			}

			// Removes and renames both mean the blob is no longer at its
			// recorded path. Temp files from atomic uploads are skipped.
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasPrefix(filepath.Base(ev.Name), ".docflow-tmp-") {
				continue
			}
			rel, relErr := filepath.Rel(absRoot, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			logger.Warn("blob watcher: blob removed out of band", slog.String("path", rel))
			if cb != nil {
				cb(rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("blob watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
