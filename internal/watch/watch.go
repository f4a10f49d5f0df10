// Package watch reports file changes below a tikibase root.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Watch gets a non-positive debounce.
const DefaultDebounce = 300 * time.Millisecond

// Change kinds.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// Change is one file change, with Path relative to the watched root.
type Change struct {
	Kind string
	Path string
}

// Handler receives the changes collected during one debounce window, sorted by path.
type Handler func(ctx context.Context, changes []Change)

// Watch starts an fsnotify watcher on root and calls fn once the tree has
// been quiet for debounce after a change. It blocks until ctx is cancelled.
//
// New directories created at runtime are added to the watch list, and files
// already inside them are reported as created. Hidden files and directories
// are ignored. A rename is reported as a deletion of the old path; the new
// path arrives as its own create event.
func Watch(ctx context.Context, root string, debounce time.Duration, logger *slog.Logger, fn Handler) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("watch: started", slog.String("root", root))

	pending := make(map[string]string)
	var timer *time.Timer
	var timerCh <-chan time.Time

	record := func(kind, rel string) {
		if prev, ok := pending[rel]; ok && prev == Created && kind == Updated {
			return
		}
		pending[rel] = kind
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watch: stopped")
			return nil

		case <-timerCh:
			timer, timerCh = nil, nil
			changes := drain(pending)
			logger.Debug("watch: changes", slog.Int("count", len(changes)))
			fn(ctx, changes)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil || hidden(rel) {
				continue
			}
			rel = filepath.ToSlash(rel)

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watch: watching new dir", slog.String("path", rel))
					}
					for _, file := range filesBelow(root, ev.Name) {
						record(Created, file)
					}
					continue
				}
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				record(Created, rel)
			case ev.Op&fsnotify.Write != 0:
				record(Updated, rel)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				record(Deleted, rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

func drain(pending map[string]string) []Change {
	changes := make([]Change, 0, len(pending))
	for path, kind := range pending {
		changes = append(changes, Change{Kind: kind, Path: path})
		delete(pending, path)
	}
	slices.SortFunc(changes, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
	return changes
}

// hidden reports whether any element of rel starts with a dot.
func hidden(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// filesBelow lists the non-hidden files under dir, relative to root.
func filesBelow(root, dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	return out
}

// addDirsRecursive adds dir and its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
