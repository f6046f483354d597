package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// watch runs files once and then again every time one of them, or the
// configuration file, is written, replaced or removed. Blocks until ctx is
// cancelled.
//
// The parent directories are watched rather than the files, so a save that
// renames a temporary file over the script keeps being noticed.
func (r *runner) watch(ctx context.Context, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	paths := append([]string{}, files...)
	if r.configPath != "" {
		paths = append(paths, r.configPath)
	}
	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to watch %q: %w", p, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("failed to watch %q: %w", p, err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		dirs[dir] = true
	}

	rerun := make(chan struct{}, 1)
	run := func() {
		if err := r.runAll(files); err != nil {
			log.Error(err.Error())
		}
	}
	run()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				log.Debugf("%s changed", event.Name)
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					select {
					case rerun <- struct{}{}:
					default:
					}
				})
			}

		case <-rerun:
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("file watcher error: %v", err)
		}
	}
}
