// Package watch feeds new inbox files to a handler as they settle.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

const queueSize = 256

// Handler processes one settled file.
type Handler func(ctx context.Context, path string)

// Filter reports whether a path relative to the watched directory (slash
// separated) should be handled.
type Filter func(rel string) bool

// Config configures a Watcher.
type Config struct {
	Filter   Filter
	Logger   *slog.Logger
	Dir      string
	Debounce time.Duration
}

// Watcher watches a directory tree and hands settled files to a handler one
// at a time.
type Watcher struct {
	handler  Handler
	filter   Filter
	logger   *slog.Logger
	pending  map[string]time.Time
	inflight map[string]struct{}
	queue    chan string
	dir      string
	debounce time.Duration
	mu       sync.Mutex
}

// New creates a Watcher over cfg.Dir.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("watch handler is required")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Watcher{
		dir:      cfg.Dir,
		filter:   cfg.Filter,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		handler:  handler,
		pending:  make(map[string]time.Time),
		inflight: make(map[string]struct{}),
		queue:    make(chan string, queueSize),
	}, nil
}

// Run watches until ctx is cancelled. The file being handled when ctx ends
// is allowed to finish before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.dir); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	defer wg.Wait()

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	w.logger.Info("Watching inbox", "dir", w.dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) tick() time.Duration {
	d := w.debounce / 4
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

// work handles queued files sequentially.
func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.handler(context.WithoutCancel(ctx), path)
			w.mu.Lock()
			delete(w.inflight, path)
			w.mu.Unlock()
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	path := event.Name

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && !hidden(filepath.Base(path)) {
			if err := w.addRecursive(fsw, path); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
			}
		}
		return
	}
	if !w.accepts(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
	w.logger.Debug("Inbox change detected", "path", path, "op", event.Op.String())
}

// flush queues files that have been quiet for the debounce period and are
// not already queued or being handled.
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	w.mu.Lock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, path)
		if _, busy := w.inflight[path]; busy {
			continue
		}
		w.inflight[path] = struct{}{}
		ready = append(ready, path)
	}
	w.mu.Unlock()

	for _, path := range ready {
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			w.release(path)
			continue
		}
		select {
		case w.queue <- path:
		case <-ctx.Done():
			w.release(path)
			return
		default:
			w.logger.Warn("Watch queue full, dropping file", "path", path)
			w.release(path)
		}
	}
}

func (w *Watcher) release(path string) {
	w.mu.Lock()
	delete(w.inflight, path)
	w.mu.Unlock()
}

func (w *Watcher) accepts(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	if hidden(filepath.Base(path)) {
		return false
	}
	return w.filter == nil || w.filter(filepath.ToSlash(rel))
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.dir && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
