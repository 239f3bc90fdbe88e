package imagesource

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports identifiers whose backing file changed.
//
// Parent directories are watched rather than the files themselves so that
// editors which replace a file by renaming are still observed.
type Watcher struct {
	fw *fsnotify.Watcher

	mu     sync.Mutex
	byPath map[string][]string
	dirs   map[string]int

	events chan string
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWatcher starts a watcher with no watched identifiers.
func NewWatcher() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("imagesource: watcher: %w", err)
	}
	w := &Watcher{
		fw:     fw,
		byPath: make(map[string][]string),
		dirs:   make(map[string]int),
		events: make(chan string, 16),
		errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events delivers the identifier of every changed source.
func (w *Watcher) Events() <-chan string { return w.events }

// Errors delivers watcher errors. Errors are dropped when nobody reads
// them.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Add watches the file behind id. Identifiers with a scheme other than
// "file://" fail with ErrUnknownSource.
func (w *Watcher) Add(id string) error {
	if scheme, _, found := strings.Cut(id, "://"); found && scheme != "file" {
		return fmt.Errorf("%w: %q is not a file", ErrUnknownSource, id)
	}
	path, err := filepath.Abs(NewFile(id).Path)
	if err != nil {
		return fmt.Errorf("imagesource: watch %s: %w", id, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, existing := range w.byPath[path] {
		if existing == id {
			return nil
		}
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fw.Add(dir); err != nil {
			return fmt.Errorf("imagesource: watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.byPath[path] = append(w.byPath[path], id)
	return nil
}

// Remove stops watching id.
func (w *Watcher) Remove(id string) {
	path, err := filepath.Abs(NewFile(id).Path)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	ids := w.byPath[path]
	for i, existing := range ids {
		if existing != id {
			continue
		}
		ids = append(ids[:i], ids[i+1:]...)
		if len(ids) == 0 {
			delete(w.byPath, path)
		} else {
			w.byPath[path] = ids
		}
		dir := filepath.Dir(path)
		w.dirs[dir]--
		if w.dirs[dir] == 0 {
			delete(w.dirs, dir)
			_ = w.fw.Remove(dir)
		}
		return
	}
}

// Close stops the watcher and closes the Events channel.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	close(w.events)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			for _, id := range w.lookup(ev.Name) {
				select {
				case w.events <- id:
				case <-w.done:
					return
				}
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) lookup(name string) []string {
	path, err := filepath.Abs(name)
	if err != nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.byPath[path]...)
}
