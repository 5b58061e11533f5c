// Copyright 2026 The pureflashblade-mcp Authors

package util

import (
	"fmt"
	"sync"
	"time"

	notify "github.com/fsnotify/fsnotify"
	log "github.com/pureflashblade/pureflashblade-mcp/logger"
)

const (
	// DefaultWatchDebounce is how long the watcher waits for events to settle before running the job
	DefaultWatchDebounce = 500 * time.Millisecond
)

// FileWatch contains watcher attributes.
type FileWatch struct {
	// Channel to receive the stop event.
	watchStop chan struct{}
	// fsnotify watcher.
	watchList *notify.Watcher
	// Job run after a burst of events settles.
	watchRun func()
	debounce time.Duration
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// InitializeWatcher is used to initialize fileWatch with a job function and new watcher.
// Editors tend to emit several events per save, so the job runs once per burst.
func InitializeWatcher(job func(), debounce time.Duration) (*FileWatch, error) {
	log.Trace(">>>>> InitializeWatcher")
	defer log.Trace("<<<<< InitializeWatcher")

	watcher, err := notify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &FileWatch{
		watchStop: make(chan struct{}),
		watchList: watcher,
		watchRun:  job,
		debounce:  debounce,
	}, nil
}

// AddWatchList list of files and directories to watch
func (w *FileWatch) AddWatchList(files []string) error {
	log.Trace(">>>>> AddWatchList")
	defer log.Trace("<<<<< AddWatchList")

	if len(files) == 0 {
		return fmt.Errorf("empty watch list is not supported, there should be at least one file to watch")
	}

	added := 0
	for _, fPath := range files {
		if err := w.watchList.Add(fPath); err != nil {
			log.Warnf("Failed to add [%s] to watch list, err %s", fPath, err.Error())
			continue
		}
		added++
		log.Tracef("Successfully added [%s] to watch list", fPath)
	}
	if added == 0 {
		return fmt.Errorf("none of %v could be watched", files)
	}
	return nil
}

// StartWatcher runs the job on every settled burst of events until StopWatcher is called.
func (w *FileWatch) StartWatcher() {
	log.Trace(">>>>> StartWatcher")
	defer log.Trace("<<<<< StartWatcher")

	w.wg.Add(1)
	defer w.wg.Done()

	var pending <-chan time.Time
	for {
		select {
		case <-w.watchStop:
			log.Info("Stopping file watcher")
			w.watchList.Close()
			return
		case event, ok := <-w.watchList.Events:
			if !ok {
				return
			}
			log.Tracef("Watcher received %s", event.String())
			pending = time.After(w.debounce)
		case err, ok := <-w.watchList.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		case <-pending:
			pending = nil
			log.Info("Watcher running job")
			w.watchRun()
		}
	}
}

// StopWatcher stops the watcher and waits for StartWatcher to return. Safe to call more than once.
func (w *FileWatch) StopWatcher() {
	log.Trace(">>>>> StopWatcher")
	defer log.Trace("<<<<< StopWatcher")

	w.stopOnce.Do(func() {
		close(w.watchStop)
	})
	w.wg.Wait()
}
