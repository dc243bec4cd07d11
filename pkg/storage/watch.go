package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/matst80/flow-finder/pkg/types"
	"go.uber.org/zap"
)

// ImportResult lists what Import stored.
type ImportResult struct {
	Saved   []types.ContentItem
	Skipped int
}

// Import saves every item, collecting failures instead of stopping at the
// first one.
func (s *Store) Import(ctx context.Context, items []types.ContentItem) (ImportResult, error) {
	res := ImportResult{Saved: make([]types.ContentItem, 0, len(items))}
	var errs []error
	for i := range items {
		item := items[i]
		if _, err := s.SaveContent(ctx, &item); err != nil {
			res.Skipped++
			errs = append(errs, fmt.Errorf("%s: %w", item.Slug, err))
			continue
		}
		res.Saved = append(res.Saved, item)
	}
	return res, errors.Join(errs...)
}

const watchedOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// WatchDir calls fn once changes under dir have settled for debounce. It
// blocks until ctx is done.
func WatchDir(ctx context.Context, dir string, debounce time.Duration, logger *zap.Logger, fn func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&watchedOps == 0 {
				continue
			}
			logger.Debug("content changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("could not watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
