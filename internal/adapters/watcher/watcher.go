package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/sift/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// DefaultDebounceWindow is the time a burst of file events is coalesced over.
const DefaultDebounceWindow = 100 * time.Millisecond

const eventChannelBuffer = 16

// Watcher observes individual files through their parent directories, so that
// editors replacing a file by rename are still noticed.
type Watcher struct {
	window time.Duration

	mu        sync.Mutex
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	files     map[string]struct{}
	dirs      map[string]struct{}

	events    chan ports.ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
	errorFn   func(error)
}

// NewWatcher creates a Watcher coalescing events over window. The underlying
// file system watcher is created on the first call to Watch.
func NewWatcher(window time.Duration) *Watcher {
	w := &Watcher{
		window: window,
		files:  make(map[string]struct{}),
		dirs:   make(map[string]struct{}),
		events: make(chan ports.ChangeEvent, eventChannelBuffer),
		done:   make(chan struct{}),
	}
	w.debouncer = NewDebouncer(window, w.emit)
	return w
}

// OnError sets a function receiving errors reported by the file system watcher.
func (w *Watcher) OnError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errorFn = fn
}

// Watch adds paths to the watched set. The watcher stops when ctx is done.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return zerr.New("watcher is closed")
	default:
	}

	if w.fsWatcher == nil {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return zerr.Wrap(err, "failed to create file watcher")
		}
		w.fsWatcher = fsw
		go w.process(ctx, fsw)
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to resolve watched path"), "path", p)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "path", dir)
		}
		w.dirs[dir] = struct{}{}
	}
	return nil
}

// Close stops the watcher and releases all resources.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		w.debouncer.Stop()

		w.mu.Lock()
		fsw := w.fsWatcher
		w.mu.Unlock()
		if fsw != nil {
			err = fsw.Close()
		}
	})
	return err
}

// Events returns an iterator of coalesced change events. It ends when the watcher is closed.
func (w *Watcher) Events() iter.Seq[ports.ChangeEvent] {
	return func(yield func(ports.ChangeEvent) bool) {
		for {
			select {
			case <-w.done:
				return
			case ev := <-w.events:
				if !yield(ev) {
					return
				}
			}
		}
	}
}

func (w *Watcher) process(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Close()
			return
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				w.debouncer.Add(filepath.Clean(event.Name))
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			fn := w.errorFn
			w.mu.Unlock()
			if fn != nil {
				fn(err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[filepath.Clean(event.Name)]
	return ok
}

func (w *Watcher) emit(paths []string) {
	select {
	case w.events <- ports.ChangeEvent{Paths: paths}:
	case <-w.done:
	}
}
