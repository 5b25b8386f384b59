package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events editors emit per save.
const watchDebounce = 250 * time.Millisecond

// WatchGames watches the data directory for changes to games.json and calls
// onChange once per edit burst. The directory rather than the file is
// watched so write-and-rename saves keep working. The returned stop function
// releases the watcher.
func (m *Manager) WatchGames(onChange func()) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := watcher.Add(m.dataPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", m.dataPath, err)
	}

	var (
		mu      sync.Mutex
		pending *time.Timer
	)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != "games.json" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				m.log.Debug().Str("op", event.Op.String()).Msg("games config changed on disk")
				mu.Lock()
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(watchDebounce, onChange)
				mu.Unlock()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				m.log.Warn().Err(err).Msg("config watcher error")
			}
		}
	}()

	stop := func() {
		mu.Lock()
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
		watcher.Close()
	}
	return stop, nil
}
