// Package watch reports file changes in a directory, coalescing the bursts
// of events editors produce for a single save.
package watch

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/hello"
)

// DefaultDelay is how long a directory must stay quiet before a batch of
// changes is delivered.
const DefaultDelay = 100 * time.Millisecond

// ErrClosed is returned by Close on a closed watcher.
var ErrClosed = errors.New("watch: watcher closed")

// Option configures a Watcher.
type Option func(*options)

type options struct {
	delay  time.Duration
	filter func(name string) bool
}

// WithDelay sets the quiet period. Non-positive values keep DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithFilter restricts reported changes to files whose base name passes fn.
func WithFilter(fn func(name string) bool) Option {
	return func(o *options) { o.filter = fn }
}

// WithExtensions reports only files with one of the given extensions
// (including the dot).
func WithExtensions(exts ...string) Option {
	return WithFilter(func(name string) bool {
		return slices.Contains(exts, filepath.Ext(name))
	})
}

// Watcher watches one directory. Each value received from Changes is the
// sorted set of paths modified during one burst.
type Watcher struct {
	fs      *fsnotify.Watcher
	opts    options
	changes chan []string
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New starts watching dir.
func New(dir string, opts ...Option) (*Watcher, error) {
	o := options{delay: DefaultDelay}
	for _, opt := range opts {
		opt(&o)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &Watcher{
		fs:      fw,
		opts:    o,
		changes: make(chan []string, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	hello.Logger().Debug("watch: started", "dir", dir, "delay", o.delay)
	return w, nil
}

// Changes delivers batches of changed paths. It is closed by Close.
func (w *Watcher) Changes() <-chan []string { return w.changes }

// Poll returns the pending batch without blocking, for callers that check
// once per frame.
func (w *Watcher) Poll() ([]string, bool) {
	select {
	case paths, ok := <-w.changes:
		return paths, ok && len(paths) > 0
	default:
		return nil, false
	}
}

// Close stops the watcher and closes the Changes channel.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	close(w.changes)
	return err
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	return w.opts.filter == nil || w.opts.filter(filepath.Base(ev.Name))
}

func (w *Watcher) run() {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.opts.delay)
	timer.Stop()

	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.opts.delay)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			hello.Logger().Warn("watch: error", "err", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			slices.Sort(batch)
			clear(pending)
			select {
			case w.changes <- batch:
			case <-w.done:
				return
			}
		}
	}
}
