package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/oshokin/climate-alarm/internal/logger"
)

// DefaultWatchDebounce coalesces the burst of events editors produce on save.
const DefaultWatchDebounce = 250 * time.Millisecond

// Watch reloads the settings file whenever it changes and passes every valid
// result to onChange. Invalid files are logged and skipped so a bad edit never
// replaces a good configuration. Watch blocks until ctx is canceled.
//
// The parent directory is watched rather than the file itself because most
// editors replace the file on save, which drops a direct watch.
//
//nolint:cyclop // Event loop with debounce is easier to follow in one place.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Config)) error {
	if path == "" {
		path = DefaultConfigFilename
	}

	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	ctx = logger.WithName(ctx, "config-watch")

	absolute, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}

	dir, file := filepath.Split(absolute)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	defer func() {
		_ = w.Close()
	}()

	if err = w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	reload := func() {
		cfg, loadErr := Load(absolute)
		if loadErr != nil {
			logger.WarnKV(ctx, "Settings changed but could not be loaded", "path", absolute, "error", loadErr)
			return
		}

		logger.InfoKV(ctx, "Settings reloaded", "path", absolute)
		onChange(cfg)
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	logger.DebugKV(ctx, "Watching settings", "path", absolute)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if !strings.EqualFold(filepath.Base(ev.Name), file) {
				continue
			}

			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}

			timer = time.AfterFunc(debounce, reload)
			mu.Unlock()
		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Settings watcher error", "error", watchErr)
		}
	}
}
