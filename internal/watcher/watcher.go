// Package watcher reports video files that appear or change below a set of
// library roots. Events are held until a file has been quiet for a settle
// interval so a file still being copied is reported once.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"jellysports/internal/logging"
)

const (
	defaultSettle = 5 * time.Second
	minTick       = 50 * time.Millisecond
)

// DefaultExtensions are the video extensions watched when none are given.
var DefaultExtensions = []string{".mkv", ".mp4", ".avi", ".mov", ".ts", ".m2ts", ".mpg", ".webm"}

// Event is a settled video file.
type Event struct {
	Path string
	// Depth counts the folders between the root and the file's folder.
	Depth int
	Root  string
}

// Watcher watches library roots recursively.
type Watcher struct {
	roots  []string
	exts   map[string]struct{}
	settle time.Duration
	clock  clockwork.Clock
	logger *slog.Logger
	onDirs func(int)

	fsw     *fsnotify.Watcher
	watched map[string]struct{}
	pending map[string]time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions sets the watched extensions, matched case-insensitively.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) == 0 {
			return
		}
		w.exts = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			w.exts[strings.ToLower(ext)] = struct{}{}
		}
	}
}

// WithSettle sets how long a file must be quiet before it is reported.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.settle = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock clockwork.Clock) Option {
	return func(w *Watcher) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logging.NewComponentLogger(logger, "watcher")
	}
}

// WithDirectoryCount is called with the number of watched directories
// whenever it changes.
func WithDirectoryCount(fn func(int)) Option {
	return func(w *Watcher) { w.onDirs = fn }
}

// New builds a watcher over roots. Roots must be existing directories.
func New(roots []string, opts ...Option) (*Watcher, error) {
	if len(roots) == 0 {
		return nil, errors.New("watcher: no library roots")
	}
	w := &Watcher{
		settle:  defaultSettle,
		clock:   clockwork.NewRealClock(),
		logger:  logging.NewComponentLogger(nil, "watcher"),
		watched: make(map[string]struct{}),
		pending: make(map[string]time.Time),
	}
	WithExtensions(DefaultExtensions)(w)
	for _, opt := range opts {
		opt(w)
	}
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve root %s: %w", root, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("library root %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("library root %s is not a directory", abs)
		}
		w.roots = append(w.roots, filepath.Clean(abs))
	}
	return w, nil
}

// Roots returns the cleaned absolute roots.
func (w *Watcher) Roots() []string {
	return append([]string(nil), w.roots...)
}

// Run delivers settled events on out until ctx is done. It returns nil on
// cancellation.
func (w *Watcher) Run(ctx context.Context, out chan<- Event) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	for _, root := range w.roots {
		w.addTree(root, false)
		w.logger.Info("watching library", logging.String("root", root))
	}

	tick := w.settle / 2
	if tick < minTick {
		tick = minTick
	}
	ticker := w.clock.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "file watcher error", "watcher_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file changes may be missed"),
			)
		case <-ticker.Chan():
			if err := w.flush(ctx, out); err != nil {
				return nil
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			// Files copied in with the folder never produce their own events.
			w.addTree(ev.Name, true)
			return
		}
		w.touch(ev.Name)
	case ev.Has(fsnotify.Write):
		w.touch(ev.Name)
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
		if _, ok := w.watched[ev.Name]; ok {
			delete(w.watched, ev.Name)
			w.reportDirs()
		}
	}
}

func (w *Watcher) touch(path string) {
	if !w.IsVideo(path) {
		return
	}
	w.pending[path] = w.clock.Now()
}

// addTree watches dir and every directory below it. With queue set the
// video files found are queued as well.
func (w *Watcher) addTree(dir string, queue bool) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if _, ok := w.watched[path]; ok {
				return nil
			}
			if err := w.fsw.Add(path); err != nil {
				logging.WarnWithContext(w.logger, "cannot watch directory", "watcher_add_failed",
					logging.String("dir", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "raise fs.inotify.max_user_watches"),
					logging.String(logging.FieldImpact, "changes below this directory are missed"),
				)
				return filepath.SkipDir
			}
			w.watched[path] = struct{}{}
			return nil
		}
		if queue {
			w.touch(path)
		}
		return nil
	})
	w.reportDirs()
}

func (w *Watcher) reportDirs() {
	if w.onDirs != nil {
		w.onDirs(len(w.watched))
	}
}

func (w *Watcher) flush(ctx context.Context, out chan<- Event) error {
	now := w.clock.Now()
	for path, seen := range w.pending {
		if now.Sub(seen) < w.settle {
			continue
		}
		delete(w.pending, path)
		ev, ok := w.event(path)
		if !ok {
			continue
		}
		w.logger.Debug("file settled", logging.String("path", path), logging.Int("depth", ev.Depth))
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (w *Watcher) event(path string) (Event, bool) {
	for _, root := range w.roots {
		if depth, ok := Depth(root, path); ok {
			return Event{Path: path, Depth: depth, Root: root}, true
		}
	}
	return Event{}, false
}

// IsVideo reports whether path has a watched extension.
func (w *Watcher) IsVideo(path string) bool {
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Depth counts the folders between root and the folder holding path. It
// reports false when path is not below root.
func Depth(root, path string) (int, bool) {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Dir(filepath.Clean(path)))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return 0, false
	}
	if rel == "." {
		return 0, true
	}
	return len(strings.Split(rel, string(filepath.Separator))), true
}
