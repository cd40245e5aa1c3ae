package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a single file and triggers a callback when it changes.
// Events are debounced because editors fire several events per save, and
// the parent directory is watched rather than the file itself so saves
// that replace the file via rename are still seen.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	timer    *time.Timer
	mutex    sync.Mutex
	onChange func()
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher for the given file
func New(path string, onChange func()) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	return &Watcher{
		path:     abs,
		watcher:  watcher,
		debounce: 100 * time.Millisecond,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching the file's directory
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(1)
	go w.watch()

	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	// Check if already stopped
	select {
	case <-w.stopChan:
		return nil
	default:
		close(w.stopChan)
	}

	w.wg.Wait()

	w.mutex.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mutex.Unlock()

	return w.watcher.Close()
}

// watch is the main event loop
func (w *Watcher) watch() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != w.path {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

		case <-w.stopChan:
			return
		}
	}
}

// schedule arms the debounce timer, restarting it if a change is already
// pending
func (w *Watcher) schedule() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.stopChan:
			return
		default:
		}
		w.onChange()
	})
}
