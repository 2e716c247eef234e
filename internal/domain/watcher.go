package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"iostest.dev/pkg/iostest/internal/adapter"
	m "iostest.dev/pkg/iostest/internal/model"
)

// DefaultDebounce is how long the watcher waits for a burst of changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// WatchArgs configures a watch session.
type WatchArgs struct {
	Root     m.Path
	Debounce time.Duration
	// Regenerate is invoked once at start and after every settled burst of
	// changes. Calls never overlap.
	Regenerate func(ctx context.Context) error
	// OnError receives regeneration failures. It may be nil.
	OnError func(err error)
}

// SourceWatcher regenerates the harness whenever the source tree changes.
type SourceWatcher interface {
	// Watch blocks until ctx is cancelled. Regeneration failures are reported
	// and do not stop the session.
	Watch(ctx context.Context, args WatchArgs) error
}

type sourceWatcher struct {
	adapter.WatchAdapter
}

// NewSourceWatcher creates a SourceWatcher backed by the provided watch adapter.
func NewSourceWatcher(watch adapter.WatchAdapter) SourceWatcher {
	return &sourceWatcher{WatchAdapter: watch}
}

func (w *sourceWatcher) Watch(ctx context.Context, args WatchArgs) error {
	if args.Regenerate == nil {
		return fmt.Errorf("watch %s: no regenerate function", args.Root)
	}

	debounce := args.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, errs, err := w.WatchAdapter.Watch(ctx, args.Root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", args.Root, err)
	}

	w.regenerate(ctx, args)

	timer := time.NewTimer(debounce)
	timer.Stop()

	defer timer.Stop()

	pending := false

	for {
		select {
		case <-ctx.Done():
			drain(changes, errs)
			return nil

		case path, ok := <-changes:
			if !ok {
				return nil
			}

			slog.Debug("Source changed", "path", path)

			pending = true

			timer.Reset(debounce)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}

			slog.Error("Watcher error", "root", args.Root, "error", err)

		case <-timer.C:
			if pending {
				pending = false

				w.regenerate(ctx, args)
			}
		}
	}
}

func (w *sourceWatcher) regenerate(ctx context.Context, args WatchArgs) {
	if err := args.Regenerate(ctx); err != nil {
		slog.Error("Failed to regenerate harness", "root", args.Root, "error", err)

		if args.OnError != nil {
			args.OnError(err)
		}
	}
}

// drain waits for the adapter to close its channels after cancellation.
func drain(changes <-chan m.Path, errs <-chan error) {
	for changes != nil || errs != nil {
		select {
		case _, ok := <-changes:
			if !ok {
				changes = nil
			}
		case _, ok := <-errs:
			if !ok {
				errs = nil
			}
		}
	}
}
