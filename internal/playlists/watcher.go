package playlists

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce window for editors that write files in several events.
const reloadDelay = 250 * time.Millisecond

// Watch reloads the store whenever its backing file is modified externally
// (manual edits, another process importing definitions). Returns a stop
// function that closes the watcher.
func (s *Store) Watch() (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file: editors replace files by
	// rename, which drops a direct file watch.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	go s.watchLoop(watcher)

	s.logger.Info("watching playlist store for external changes", "path", s.path)
	return func() { watcher.Close() }, nil
}

func (s *Store) watchLoop(watcher *fsnotify.Watcher) {
	var timer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !s.isStoreEvent(event) {
				continue
			}
			// Debounce: editors emit several events per save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() {
				if err := s.Reload(); err != nil {
					s.logger.Error("failed to reload playlist store", "err", err)
					return
				}
				s.logger.Info("playlist store reloaded after external change")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("playlist store watcher error", "err", err)
		}
	}
}

func (s *Store) isStoreEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return name == filepath.Base(s.path)
}
