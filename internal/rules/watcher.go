package rules

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// WatcherConfig selects the reload triggers. With a zero config the watcher
// never fires.
type WatcherConfig struct {
	// Path is a local rules file to watch for changes; empty disables file
	// watching (S3 sources have nothing to watch).
	Path string

	// Refresh reloads on a fixed interval regardless of change events — the
	// only signal available for remote sources. Zero disables it.
	Refresh time.Duration

	// Debounce is how long a changed file gets to settle before the reload
	// fires. Defaults to 250ms.
	Debounce time.Duration
}

// Watcher triggers rules reloads on debounced file changes and on a periodic
// refresh interval. The reload callback runs on a single goroutine.
type Watcher struct {
	path     string
	debounce time.Duration
	interval time.Duration
	reload   func()
	logger   *slog.Logger

	fsw      *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a stopped watcher; call Start to begin delivering
// reloads.
func NewWatcher(cfg WatcherConfig, reload func(), logger *slog.Logger) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		debounce: cfg.Debounce,
		interval: cfg.Refresh,
		reload:   reload,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if cfg.Path != "" {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("create file watcher: %w", err)
		}
		// Watch the directory, not the file: editors replace files on save
		// and a watch on the old inode would go quiet.
		dir := filepath.Dir(cfg.Path)
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		w.path = filepath.Clean(cfg.Path)
		w.fsw = fsw
	}
	return w, nil
}

// Start launches the watch goroutine.
func (w *Watcher) Start() {
	go w.run()
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if w.fsw != nil {
			w.fsw.Close()
		}
	})
}

func (w *Watcher) run() {
	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	if w.fsw != nil {
		fsEvents = w.fsw.Events
		fsErrors = w.fsw.Errors
	}

	var refresh <-chan time.Time
	if w.interval > 0 {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		refresh = ticker.C
	}

	var timer *time.Timer
	var settle <-chan time.Time

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				settle = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			w.logger.Warn("rules watcher error", "error", err)
		case <-settle:
			timer = nil
			settle = nil
			w.reload()
		case <-refresh:
			w.reload()
		}
	}
}
