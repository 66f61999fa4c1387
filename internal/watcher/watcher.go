// Package watcher reports edits to dump inputs so the surface can be
// re-rendered.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apierrors "apidump/internal/errors"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event represents a file system event
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeHandler is called once per quiet period with the coalesced events.
type ChangeHandler func(ctx context.Context, events []Event)

// Config contains watcher configuration
type Config struct {
	DebounceMs     int
	IgnorePatterns []string
}

// DefaultConfig returns the default watcher configuration
func DefaultConfig() Config {
	return Config{
		DebounceMs: 250,
		IgnorePatterns: []string{
			"*.tmp",
			"*.swp",
			"*~",
			".#*",
			"bin/**",
			"obj/**",
			".git/**",
			"node_modules/**",
		},
	}
}

// skippedDirs are never descended into when watching a directory.
var skippedDirs = map[string]bool{"bin": true, "obj": true, ".git": true, "node_modules": true}

// Watcher watches dump inputs. Files are watched through their parent
// directory so editors that replace files on save are still seen.
type Watcher struct {
	config  Config
	logger  *slog.Logger
	handler ChangeHandler
	fsw     *fsnotify.Watcher
	batch   *BatchDebouncer

	mu    sync.RWMutex
	files map[string]bool // watched input files
	roots map[string]bool // watched input directories
	dirs  map[string]bool // directories registered with fsnotify
	ctx   context.Context
}

// New creates a watcher. Call Add for each input, then Run.
func New(config Config, logger *slog.Logger, handler ChangeHandler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, apierrors.New(apierrors.InternalError, "creating file watcher", err)
	}
	w := &Watcher{
		config:  config,
		logger:  logger,
		handler: handler,
		fsw:     fsw,
		files:   make(map[string]bool),
		roots:   make(map[string]bool),
		dirs:    make(map[string]bool),
		ctx:     context.Background(),
	}
	w.batch = NewBatchDebouncer(time.Duration(config.DebounceMs)*time.Millisecond, w.emit)
	return w, nil
}

// Add starts watching an input file or directory.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return apierrors.New(apierrors.InputInvalid, "resolving "+path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return apierrors.New(apierrors.InputNotFound, "watching "+path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.IsDir() {
		w.files[abs] = true
		return w.addDir(filepath.Dir(abs))
	}
	w.roots[abs] = true
	return filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != abs && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.addDir(p)
	})
}

// addDir registers dir with fsnotify. Callers hold mu.
func (w *Watcher) addDir(dir string) error {
	if w.dirs[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return apierrors.New(apierrors.InternalError, "watching "+dir, err)
	}
	w.dirs[dir] = true
	w.logger.Debug("Watching directory", "path", dir)
	return nil
}

// Run delivers events until ctx is cancelled. Events still waiting for
// their quiet period are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()

	w.logger.Info("Starting file watcher", "debounceMs", w.config.DebounceMs, "directories", len(w.Watched()))
	defer func() {
		w.batch.Cancel()
		_ = w.fsw.Close()
		w.logger.Info("File watcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	w.batch.Cancel()
	return w.fsw.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	var typ EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		typ = EventCreate
	case event.Op&fsnotify.Write != 0:
		typ = EventModify
	case event.Op&fsnotify.Remove != 0:
		typ = EventDelete
	case event.Op&fsnotify.Rename != 0:
		typ = EventRename
	default:
		return
	}

	path := filepath.Clean(event.Name)
	if !w.relevant(path) {
		return
	}
	if typ == EventCreate {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.mu.Lock()
			if !skippedDirs[info.Name()] {
				if err := w.addDir(path); err != nil {
					w.logger.Warn("Cannot watch new directory", "path", path, "error", err)
				}
			}
			w.mu.Unlock()
			return
		}
	}
	w.batch.Add(Event{Type: typ, Path: path, Timestamp: time.Now()})
}

// relevant is true for watched files and for anything below a watched
// directory that is not ignored.
func (w *Watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.files[path] {
		return true
	}
	for root := range w.roots {
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return !w.IsIgnored(filepath.ToSlash(rel))
		}
	}
	return false
}

func (w *Watcher) emit(events []Event) {
	w.mu.RLock()
	ctx := w.ctx
	w.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}
	w.logger.Debug("Input changes detected", "eventCount", len(events))
	if w.handler != nil {
		w.handler(ctx, events)
	}
}

// IsIgnored checks if a slash separated path matches ignore patterns
func (w *Watcher) IsIgnored(path string) bool {
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
			return true
		}
		prefix, found := strings.CutSuffix(pattern, "/**")
		if !found {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") || strings.Contains(path, "/"+prefix+"/") {
			return true
		}
	}
	return false
}

// Watched returns the directories registered with the OS, sorted.
func (w *Watcher) Watched() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	dirs := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
