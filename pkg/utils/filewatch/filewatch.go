package filewatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/lorawan-service-manager/log"
)

// Watcher reports changes of single files. The parent directories are
// watched so that files replaced by editors (rename, remove+create) are
// still detected.
type (
	Option  func(*Watcher)
	Watcher struct {
		fw       *fsnotify.Watcher
		files    map[string]bool
		onChange func(path string)
		debounce time.Duration
		l        *log.Logger
		mu       sync.Mutex
		timers   map[string]*time.Timer
		done     chan struct{}
	}
)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		w.l = l
	}
}

// Start watches files until ctx is done. onChange is called once per burst
// of events for a file.
//
//nolint:whitespace // can't make both editor and linter happy
func Start(
	ctx context.Context,
	files []string,
	onChange func(path string),
	opts ...Option,
) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		files:    map[string]bool{},
		onChange: onChange,
		debounce: 100 * time.Millisecond,
		l:        log.Default().Named("filewatch"),
		timers:   map[string]*time.Timer{},
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	dirs := map[string]bool{}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, err
		}
	}
	go w.run(ctx)
	return w, nil
}

// Wait blocks until the watcher has stopped.
func (w *Watcher) Wait() {
	<-w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer w.fw.Close()
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			w.l.Debug("context done, stopping file watcher")
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				w.l.Info("watcher events channel closed, stopping file watcher")
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.files[name] {
				continue
			}
			w.l.Debug("change detected",
				log.String("file", name), log.String("op", event.Op.String()))
			w.schedule(name)
		case err, ok := <-w.fw.Errors:
			if !ok {
				w.l.Info("watcher errors channel closed, stopping file watcher")
				return
			}
			w.l.Error("watcher error", log.ErrorField(err))
		}
	}
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[name]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, name)
		w.mu.Unlock()
		w.onChange(name)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
}
