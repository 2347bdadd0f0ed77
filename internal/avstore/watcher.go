package avstore

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 100 * time.Millisecond

// ChangeEvent reports that a view file changed on disk.
type ChangeEvent struct {
	AvID    string
	Removed bool
}

// Watch reports changes to view files made by other processes. Events are
// debounced per view. Close the returned Closer to stop watching.
func (s *Store) Watch() (<-chan ChangeEvent, io.Closer, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, nil, err
	}

	events := make(chan ChangeEvent, 32)

	go func() {
		timers := make(map[string]*time.Timer)
		var closed bool
		var mu sync.Mutex

		defer func() {
			mu.Lock()
			closed = true
			for _, t := range timers {
				t.Stop()
			}
			mu.Unlock()
			close(events)
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				avID, ok := idFromName(filepath.Base(event.Name))
				if !ok || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				removed := event.Op&(fsnotify.Remove|fsnotify.Rename) != 0

				mu.Lock()
				if t := timers[avID]; t != nil {
					t.Stop()
				}
				timers[avID] = time.AfterFunc(debounceDelay, func() {
					mu.Lock()
					defer mu.Unlock()
					if closed {
						return
					}
					if !removed && s.wroteRecently(avID, time.Second) {
						return
					}
					select {
					case events <- ChangeEvent{AvID: avID, Removed: removed}:
					default:
						// Channel full, drop event
					}
				})
				mu.Unlock()

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return events, watcher, nil
}
