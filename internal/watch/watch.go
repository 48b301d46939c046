// Package watch reports debounced changes to a set of files.
//
// Editors often save by writing a temporary file and renaming it over the
// original, which replaces the inode. The watcher therefore watches each
// file's directory and filters events by name, so tracking survives
// replacement.
package watch

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is the quiet period before a batch of changes is delivered.
const DefaultDelay = 250 * time.Millisecond

// ErrClosed is returned when using a closed watcher.
var ErrClosed = errors.New("watch: watcher is closed")

// Event is a batch of changes delivered after the quiet period.
type Event struct {
	// Paths holds the changed files, sorted.
	Paths []string
	Time  time.Time
}

// Watcher delivers a debounced Event whenever tracked files change.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	delay   time.Duration
	files   map[string]bool
	dirs    map[string]bool
	pending map[string]bool
	timer   *time.Timer
	closed  bool

	events  chan Event
	errors  chan error
	fire    chan struct{}
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher with the given quiet period. A non-positive delay
// selects DefaultDelay.
func New(delay time.Duration) (*Watcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		delay:   delay,
		files:   make(map[string]bool),
		dirs:    make(map[string]bool),
		pending: make(map[string]bool),
		events:  make(chan Event, 1),
		errors:  make(chan error, 8),
		fire:    make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Add starts tracking path. Adding a tracked path is a no-op.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if w.files[abs] {
		return nil
	}
	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Set replaces the tracked files with paths.
func (w *Watcher) Set(paths []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.files = make(map[string]bool)
	w.mu.Unlock()

	var errs []error
	for _, p := range paths {
		errs = append(errs, w.Add(p))
	}
	return errors.Join(errs...)
}

// Files returns the tracked files, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Events returns the channel of debounced change batches. It is closed by Close.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors returns the channel of watcher errors. It is closed by Close.
func (w *Watcher) Errors() <-chan error { return w.errors }

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Chmod) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			w.record(ev.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}

		case <-w.fire:
			w.flush()
		}
	}
}

func (w *Watcher) record(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[filepath.Clean(name)] {
		return
	}
	w.pending[filepath.Clean(name)] = true
	if w.timer == nil {
		w.timer = time.AfterFunc(w.delay, func() {
			select {
			case w.fire <- struct{}{}:
			default:
			}
		})
		return
	}
	w.timer.Reset(w.delay)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	ev := Event{Time: time.Now()}
	for p := range w.pending {
		ev.Paths = append(ev.Paths, p)
	}
	sort.Strings(ev.Paths)
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	// A newer batch replaces one the consumer has not read yet.
	select {
	case w.events <- ev:
	default:
		select {
		case <-w.events:
		default:
		}
		select {
		case w.events <- ev:
		default:
		}
	}
}

// Close stops watching and closes the output channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsw.Close()
}
