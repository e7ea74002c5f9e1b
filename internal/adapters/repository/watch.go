package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kamal-hamza/vx-cli/internal/log"
)

const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures Watch
type WatchOptions struct {
	Dir      string
	Match    func(name string) bool // Base-name filter; nil matches everything not hidden
	Debounce time.Duration
	OnChange func(names []string) // Called with the base names changed since the last call
}

// Watch reports changes to the store files under Dir until ctx is cancelled.
// Bursts of events are coalesced into one OnChange call.
func Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Match == nil {
		opts.Match = func(string) bool { return true }
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Dir, err)
	}
	log.Debug(log.CatWatcher, "watching", "dir", opts.Dir)

	var (
		mu            sync.Mutex
		pending       = map[string]struct{}{}
		debounceTimer *time.Timer
	)

	flush := func() {
		mu.Lock()
		names := make([]string, 0, len(pending))
		for name := range pending {
			names = append(names, name)
		}
		pending = map[string]struct{}{}
		mu.Unlock()

		if len(names) > 0 && ctx.Err() == nil {
			log.Debug(log.CatWatcher, "store changed", "files", len(names))
			opts.OnChange(names)
		}
	}
	defer func() {
		mu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// Temp files from atomic writes
			baseName := filepath.Base(event.Name)
			if strings.HasPrefix(baseName, ".") || strings.HasPrefix(baseName, "~") {
				continue
			}
			if !opts.Match(baseName) {
				continue
			}

			if event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Write) ||
				event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) {

				mu.Lock()
				pending[baseName] = struct{}{}
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(opts.Debounce, flush)
				mu.Unlock()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.ErrorErr(log.CatWatcher, "watcher error", err)

		case <-ctx.Done():
			return nil
		}
	}
}

// RegistryFileMatch matches JSON registry account files
func RegistryFileMatch(name string) bool {
	return strings.HasSuffix(name, ".json")
}

// SQLiteFileMatch matches the database and its WAL
func SQLiteFileMatch(dbPath string) func(string) bool {
	base := filepath.Base(dbPath)
	return func(name string) bool {
		return name == base || name == base+"-wal"
	}
}
