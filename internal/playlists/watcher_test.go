package playlists

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	tu "cratesync/internal/testing"
)

func TestWatch(t *testing.T) {
	path := storePath(t)
	s := mustStore(t, path)
	if err := s.Create(definition("pl1", "Original")); err != nil {
		t.Fatal(err)
	}

	stop, err := s.Watch()
	if err != nil {
		t.Fatalf("failed to start watcher: %v", err)
	}
	defer stop()

	doc := `{"smart_playlists": [{"playlistId": "pl2", "playlistName": "Edited", "criteria": {"activeTagFilters": []}}]}`
	tu.MustWriteFile(t, path, doc)

	// Reload happens after the debounce window; poll with a deadline.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := s.Get("pl2"); ok {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("expected external edit to be picked up by the watcher")
}

func TestIsStoreEvent(t *testing.T) {
	s := mustStore(t, storePath(t))

	cases := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"Write To Store File", fsnotify.Event{Name: s.Path(), Op: fsnotify.Write}, true},
		{"Create Of Store File", fsnotify.Event{Name: s.Path(), Op: fsnotify.Create}, true},
		{"Chmod Only", fsnotify.Event{Name: s.Path(), Op: fsnotify.Chmod}, false},
		{"Different File", fsnotify.Event{Name: "/tmp/other.json", Op: fsnotify.Write}, false},
		{"Hidden Swap File", fsnotify.Event{Name: ".playlists.json.swp", Op: fsnotify.Write}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.isStoreEvent(tc.event); got != tc.want {
				t.Errorf("isStoreEvent(%v) = %v, want %v", tc.event, got, tc.want)
			}
		})
	}
}
