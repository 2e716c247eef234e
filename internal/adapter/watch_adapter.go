package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	m "iostest.dev/pkg/iostest/internal/model"
)

// WatchAdapter reports filesystem changes below a directory.
type WatchAdapter interface {
	// Watch streams the paths of created, written, removed or renamed entries
	// under root until ctx is cancelled. Both channels are closed when
	// watching stops.
	Watch(ctx context.Context, root m.Path) (<-chan m.Path, <-chan error, error)
}

// LocalWatchAdapter is an fsnotify-backed WatchAdapter. fsnotify watches are
// not recursive, so every directory below root is registered, including
// directories created while watching.
type LocalWatchAdapter struct{}

// NewLocalWatchAdapter constructs a LocalWatchAdapter.
func NewLocalWatchAdapter() *LocalWatchAdapter {
	return &LocalWatchAdapter{}
}

// Watch starts watching root.
func (a *LocalWatchAdapter) Watch(ctx context.Context, root m.Path) (<-chan m.Path, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := addTree(watcher, string(root)); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	changes := make(chan m.Path)
	errs := make(chan error, 1)

	go func() {
		defer close(changes)
		defer close(errs)

		defer func() {
			if err := watcher.Close(); err != nil {
				slog.Error("failed to close watcher", "root", root, "error", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if !relevant(event) {
					continue
				}

				if event.Has(fsnotify.Create) {
					if info, statErr := os.Lstat(event.Name); statErr == nil && info.IsDir() {
						if err := addTree(watcher, event.Name); err != nil {
							slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
						}
					}
				}

				select {
				case <-ctx.Done():
					return
				case changes <- m.Path(event.Name):
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}

				select {
				case errs <- err:
				default:
					slog.Error("dropped watcher error", "error", err)
				}
			}
		}
	}()

	return changes, errs, nil
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}

		return nil
	})
}
