// Package watcher raises a reload signal when a shader source file changes.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes one file. Notifications arrive on fsnotify's goroutine
// and are only forwarded as unit signals on the Reloads channel.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	reloads chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// New starts watching path. The file must exist. Its parent directory is
// watched so that editors which save by replacing the file are seen too.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: is a directory", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("cannot watch %s: %w", path, err)
	}

	w := &Watcher{
		path:    filepath.Clean(abs),
		fs:      fw,
		reloads: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	slog.Debug("watching shader source", "path", w.path)
	return w, nil
}

// Reloads delivers a signal after the file changed. Signals raised while
// one is already pending are merged into it.
func (w *Watcher) Reloads() <-chan struct{} {
	return w.reloads
}

func (w *Watcher) Path() string {
	return w.path
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.relevant(event) {
				slog.Debug("shader source changed", "path", event.Name, "op", event.Op.String())
				w.signal()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("shader watcher error", "path", w.path, "err", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) signal() {
	select {
	case w.reloads <- struct{}{}:
	default:
	}
}
