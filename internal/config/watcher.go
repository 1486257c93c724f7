package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wesm/kanbanpulse/internal/dashboard"
)

// Watcher watches the config file and calls back with freshly
// parsed triage thresholds after changes settle. Editors tend to
// replace files rather than write in place, so it watches the
// containing directory and debounces bursts of events.
type Watcher struct {
	path     string
	onChange func(dashboard.Thresholds)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatchThresholds starts watching path for changes. onChange
// runs on the watcher goroutine after each debounced change.
func WatchThresholds(
	path string, debounce time.Duration,
	onChange func(dashboard.Thresholds),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching config dir: %w", err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Stop stops the watcher and waits for it to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are transient; a broken watch only
			// delays the next reload until restart.
		}
	}
}

func (w *Watcher) reload() {
	triage, err := ReadTriage(w.path)
	if err != nil {
		// Keep the previous thresholds on a malformed edit.
		return
	}
	w.onChange(triage.Thresholds())
}
