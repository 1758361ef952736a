package hijacker

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mpm/pkg/logger"
)

const (
	modifyDebounce = 1 * time.Second
	createSettle   = 100 * time.Millisecond
)

// fsWatcher wraps fsnotify with the event filtering and debounce rules
// from §4.6: only *.json paths containing "todos" are considered; a
// modify within modifyDebounce of the last processed time for that path is
// skipped; a create waits createSettle before the file is read, to let the
// writer finish.
type fsWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu           sync.Mutex
	lastModified map[string]time.Time
}

func newFSWatcher(dir string, onEvent func(path string)) (*fsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	fw := &fsWatcher{
		watcher:      w,
		done:         make(chan struct{}),
		lastModified: map[string]time.Time{},
	}

	fw.wg.Add(1)
	go fw.run(onEvent)
	return fw, nil
}

func isTodoJSON(path string) bool {
	return strings.HasSuffix(path, ".json") && strings.Contains(path, "todos")
}

func (fw *fsWatcher) run(onEvent func(path string)) {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event, onEvent)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("todo watcher error: %v", err)
		}
	}
}

func (fw *fsWatcher) handle(event fsnotify.Event, onEvent func(path string)) {
	if !isTodoJSON(event.Name) {
		return
	}

	switch {
	case event.Op&fsnotify.Write == fsnotify.Write:
		if fw.debounced(event.Name) {
			return
		}
		logger.Debugf("TODO file modified: %s", event.Name)
		onEvent(event.Name)
	case event.Op&fsnotify.Create == fsnotify.Create:
		logger.Debugf("TODO file created: %s", event.Name)
		path := event.Name
		fw.wg.Add(1)
		go func() {
			defer fw.wg.Done()
			timer := time.NewTimer(createSettle)
			defer timer.Stop()
			select {
			case <-timer.C:
				onEvent(path)
			case <-fw.done:
			}
		}()
	}
}

// debounced reports whether path was processed within modifyDebounce, and
// if not, records now as its last-processed time.
func (fw *fsWatcher) debounced(path string) bool {
	now := time.Now()
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if last, ok := fw.lastModified[path]; ok && now.Sub(last) < modifyDebounce {
		return true
	}
	fw.lastModified[path] = now
	return false
}

func (fw *fsWatcher) close() error {
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}
