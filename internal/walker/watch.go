package walker

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"anteater/internal/logging"
)

// defaultDebounce batches rapid successive writes (editors often save in
// multiple syscalls) into one re-analysis, the same debounce idiom the
// teacher's fsnotify-based watcher uses.
const defaultDebounce = 300 * time.Millisecond

// WatchFunc is invoked with the set of changed files once they have
// settled past the debounce window.
type WatchFunc func(ctx context.Context, changed []string)

// Watch watches w's root for .dart file changes (spec.md §6's --watch
// flag) until ctx is cancelled, calling onChange with the debounced batch
// of changed paths. It watches Root non-recursively plus every directory
// that held a discovered source file at startup; other subdirectories, and
// directories created later, are not
// picked up until the next restart, matching the teacher's watcher's
// "directory may not exist yet, that's OK" best-effort posture.
func (w *Walker) Watch(ctx context.Context, onChange WatchFunc) error {
	log := logging.Get(logging.CategoryWalker)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dirs := map[string]struct{}{w.opts.Root: {}}
	if files, err := w.Discover(); err == nil {
		for _, f := range files {
			dirs[filepath.Dir(f)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			log.Warn("walker: watch failed for %s: %v", dir, err)
		}
	}
	log.Info("walker: watching %d directories under %s", len(dirs), w.opts.Root)

	var mu sync.Mutex
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != SourceExtension {
				continue
			}
			rel, relErr := filepath.Rel(w.opts.Root, event.Name)
			if relErr == nil && w.matcher.matches(rel) {
				continue
			}
			mu.Lock()
			pending[event.Name] = time.Now()
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Error("walker: watch error: %v", err)

		case <-ticker.C:
			settled := drainSettled(&mu, pending, defaultDebounce)
			if len(settled) > 0 {
				onChange(ctx, settled)
			}
		}
	}
}

func drainSettled(mu *sync.Mutex, pending map[string]time.Time, debounce time.Duration) []string {
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	var settled []string
	for path, t := range pending {
		if now.Sub(t) >= debounce {
			settled = append(settled, path)
			delete(pending, path)
		}
	}
	return settled
}
