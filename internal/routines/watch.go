package routines

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors a local routines document and invokes onChange after the
// file settles following a write. It returns immediately with nil when the
// source is not a local file, and blocks until ctx is cancelled otherwise.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file via rename keep triggering events.
func Watch(ctx context.Context, sourceURL string, logger *slog.Logger, onChange func()) error {
	path, ok := LocalPath(sourceURL)
	if !ok {
		return nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("routines watcher: started", slog.String("path", abs))

	// Debounce rapid write bursts into one sync trigger.
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("routines watcher: stopped")
			return nil

		case <-fire:
			logger.Info("routines document changed, triggering sync", slog.String("path", abs))
			onChange()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(200 * time.Millisecond)
				fire = debounce.C
			} else {
				debounce.Reset(200 * time.Millisecond)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("routines watcher: error", slog.String("error", err.Error()))
		}
	}
}
