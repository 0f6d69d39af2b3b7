package localfiles

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"cratesync/internal/shared"
)

func TestParseURI(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		track := &LocalTrack{
			Artist:   "Some Artist",
			Album:    "The Album",
			Title:    "Track: With Colon",
			Duration: 245,
		}

		parsed, err := ParseURI(track.URI())
		if err != nil {
			t.Fatalf("failed to parse own URI: %v", err)
		}

		if *parsed != *track {
			t.Errorf("round trip mismatch: %+v != %+v", parsed, track)
		}
	})

	t.Run("Plain Fields", func(t *testing.T) {
		track, err := ParseURI("spotify:local:Artist:Album:Song:180")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if track.Artist != "Artist" || track.Album != "Album" || track.Title != "Song" || track.Duration != 180 {
			t.Errorf("unexpected track: %+v", track)
		}
	})

	t.Run("Escaped Spaces", func(t *testing.T) {
		track, err := ParseURI("spotify:local:Daft+Punk:Discovery:One+More+Time:320")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.Artist != "Daft Punk" || track.Title != "One More Time" {
			t.Errorf("expected '+' decoded as space, got %+v", track)
		}
	})

	t.Run("Empty Fields Allowed", func(t *testing.T) {
		track, err := ParseURI("spotify:local::::0")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.Artist != "" || track.Duration != 0 {
			t.Errorf("unexpected track: %+v", track)
		}
	})

	t.Run("Rejects Non-Local URIs", func(t *testing.T) {
		if _, err := ParseURI("spotify:track:abc"); err == nil {
			t.Error("expected error for catalog URI")
		}
	})

	t.Run("Rejects Wrong Field Count", func(t *testing.T) {
		if _, err := ParseURI("spotify:local:only:three:fields"); err == nil {
			t.Error("expected error for missing duration field")
		}
	})
}

func TestIsAudioFile(t *testing.T) {
	cases := map[string]bool{
		"song.mp3":       true,
		"song.MP3":       true,
		"song.flac":      true,
		"song.m4a":       true,
		"song.ogg":       true,
		"song.wav":       true,
		"cover.jpg":      false,
		"notes.txt":      false,
		"noextension":    false,
		"dir/nested.mp3": true,
	}

	for path, want := range cases {
		if got := IsAudioFile(path); got != want {
			t.Errorf("IsAudioFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestScanDirectory(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Missing Directory", func(t *testing.T) {
		if _, err := ScanDirectory(filepath.Join(t.TempDir(), "absent"), logger); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("Skips Unreadable And Non-Audio Files", func(t *testing.T) {
		dir := t.TempDir()

		// Not audio: ignored entirely.
		if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644); err != nil {
			t.Fatal(err)
		}
		// Audio extension but no parseable metadata: logged and skipped.
		if err := os.WriteFile(filepath.Join(dir, "broken.mp3"), []byte("not really audio"), 0o644); err != nil {
			t.Fatal(err)
		}

		records, err := ScanDirectory(dir, logger)
		if err != nil {
			t.Fatalf("expected scan to continue past bad files, got %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records from unreadable files, got %d", len(records))
		}
	})
}
