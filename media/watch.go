package media

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zoynulabedin/snowlightv2-sub000/logger"
	"github.com/zoynulabedin/snowlightv2-sub000/model"
)

// settleDelay is how long a file must go without writes before it is read.
const settleDelay = 500 * time.Millisecond

// Watch reports audio files that appear under dir until ctx is done. A file
// is reported once, after it has stopped changing. known lists paths that
// are already in the library.
func Watch(ctx context.Context, dir string, known []string, onAdd func(model.Track)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	addRecursive := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
	}
	if err := addRecursive(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	seen := make(map[string]bool, len(known))
	for _, p := range known {
		if abs, err := filepath.Abs(p); err == nil {
			seen[abs] = true
		}
	}
	pending := make(map[string]time.Time)

	ticker := time.NewTicker(settleDelay / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(event.Name); err != nil {
						logger.Warn("failed to watch new directory",
							logger.String("path", event.Name),
							logger.ErrorField(err))
					}
					continue
				}
			}
			if !IsAudioFile(event.Name) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || seen[abs] {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[abs] = time.Now()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, abs)
			}

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				track, err := ReadTrack(path)
				if err != nil {
					logger.Warn("failed to read new file", logger.String("path", path), logger.ErrorField(err))
					continue
				}
				seen[path] = true
				onAdd(track)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", logger.ErrorField(err))
		}
	}
}
