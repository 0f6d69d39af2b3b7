// package localfiles handles tracks that are not resolvable through the
// remote catalog: parsing local-file URIs and scanning a directory of audio
// files into tag records.
package localfiles

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dhowden/tag"

	"cratesync/internal/models"
)

const localURIPrefix = "spotify:local:"

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".wav":  true,
}

// LocalTrack is the metadata encoded in a local-file URI.
type LocalTrack struct {
	Artist   string
	Album    string
	Title    string
	Duration int // seconds, 0 when unknown
}

// ParseURI decodes a local-file URI of the form
// spotify:local:artist:album:title:duration (fields query-escaped, spaces
// as '+').
func ParseURI(uri string) (*LocalTrack, error) {
	if !strings.HasPrefix(uri, localURIPrefix) {
		return nil, fmt.Errorf("not a local file URI: %s", uri)
	}

	parts := strings.Split(strings.TrimPrefix(uri, localURIPrefix), ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed local file URI: %s", uri)
	}

	artist, err := url.QueryUnescape(parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed artist field: %w", err)
	}
	album, err := url.QueryUnescape(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed album field: %w", err)
	}
	title, err := url.QueryUnescape(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed title field: %w", err)
	}

	duration, _ := strconv.Atoi(parts[3])

	return &LocalTrack{Artist: artist, Album: album, Title: title, Duration: duration}, nil
}

// URI encodes the track back into its local-file URI form.
func (t *LocalTrack) URI() string {
	return localURIPrefix + strings.Join([]string{
		url.QueryEscape(t.Artist),
		url.QueryEscape(t.Album),
		url.QueryEscape(t.Title),
		strconv.Itoa(t.Duration),
	}, ":")
}

// IsAudioFile reports whether path has a supported audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanDirectory walks dir and builds a tag record for every readable audio
// file, deriving the local-file URI from its embedded metadata. Files whose
// metadata cannot be read are logged and skipped.
func ScanDirectory(dir string, logger *log.Logger) ([]models.TrackRecord, error) {
	var records []models.TrackRecord

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsAudioFile(path) {
			return nil
		}

		record, err := recordFromFile(path)
		if err != nil {
			logger.Warn("skipping unreadable audio file", "path", path, "err", err)
			return nil
		}

		records = append(records, *record)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	return records, nil
}

// recordFromFile reads embedded metadata and builds an untagged record.
func recordFromFile(path string) (*models.TrackRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	title := m.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	local := LocalTrack{
		Artist: m.Artist(),
		Album:  m.Album(),
		Title:  title,
	}

	now := time.Now().UTC()
	return &models.TrackRecord{
		URI:        local.URI(),
		Tags:       []models.TagReference{},
		CreatedAt:  now,
		ModifiedAt: now,
	}, nil
}
