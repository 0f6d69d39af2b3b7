// package playlists provides persistence and in-memory authority for the
// set of smart playlist definitions.
//
// Definitions are stored as a JSON document keyed by [StorageKey]. The store
// is the single shared mutable resource of the sync engine; every method
// takes the store lock so queue operations, CLI reads, and the file watcher
// never observe a half-applied update.
package playlists

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"cratesync/internal/models"
	"cratesync/internal/shared"
)

// StorageKey is the fixed top-level key the definitions array lives under.
const StorageKey = "smart_playlists"

// Store owns the smart playlist definitions.
type Store struct {
	path   string
	logger *log.Logger

	mu        sync.RWMutex
	playlists []*models.SmartPlaylist
}

// NewStore loads definitions from path. A missing file yields an empty
// store; malformed entries are dropped so corruption in one definition
// cannot take down the rest.
func NewStore(path string, logger *log.Logger) (*Store, error) {
	s := &Store{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist store: %w", err)
	}

	kept, dropped, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist store: %w", err)
	}
	if dropped > 0 {
		logger.Warn("dropped malformed playlist entries on load", "dropped", dropped, "kept", len(kept))
	}

	s.playlists = kept
	return s, nil
}

// decodeDocument parses the persisted JSON document, validating each entry
// independently. Returns valid entries and the count of dropped ones.
func decodeDocument(data []byte) ([]*models.SmartPlaylist, int, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, err
	}

	raw, ok := doc[StorageKey]
	if !ok {
		return nil, 0, nil
	}

	return decodeEntries(raw)
}

// decodeEntries validates a JSON array of definitions entry by entry.
func decodeEntries(raw json.RawMessage) ([]*models.SmartPlaylist, int, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, 0, fmt.Errorf("%w: expected an array of playlists", shared.ErrInvalidInput)
	}

	var kept []*models.SmartPlaylist
	dropped := 0

	for _, entry := range entries {
		var p models.SmartPlaylist
		if err := json.Unmarshal(entry, &p); err != nil {
			dropped++
			continue
		}
		if err := p.Validate(); err != nil {
			dropped++
			continue
		}
		if p.TrackURIs == nil {
			p.TrackURIs = []string{}
		}
		kept = append(kept, &p)
	}

	return kept, dropped, nil
}

// persist writes the current definitions back to disk. Caller must hold the
// store lock.
func (s *Store) persist() error {
	doc := map[string]any{StorageKey: s.playlists}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playlist store: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write playlist store: %w", err)
	}

	return nil
}

// All returns copies of every definition, preserving insertion order.
func (s *Store) All() []models.SmartPlaylist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SmartPlaylist, 0, len(s.playlists))
	for _, p := range s.playlists {
		out = append(out, copyPlaylist(p))
	}
	return out
}

// Active returns copies of every definition with IsActive set.
func (s *Store) Active() []models.SmartPlaylist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SmartPlaylist
	for _, p := range s.playlists {
		if p.IsActive {
			out = append(out, copyPlaylist(p))
		}
	}
	return out
}

// Get returns a copy of the definition with the given playlist ID.
func (s *Store) Get(playlistID string) (models.SmartPlaylist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.playlists {
		if p.PlaylistID == playlistID {
			return copyPlaylist(p), true
		}
	}
	return models.SmartPlaylist{}, false
}

// Create appends a new definition and persists the store.
func (s *Store) Create(p models.SmartPlaylist) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.playlists {
		if existing.PlaylistID == p.PlaylistID {
			return fmt.Errorf("%w: playlist %s already defined", shared.ErrInvalidArgument, p.PlaylistID)
		}
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.TrackURIs == nil {
		p.TrackURIs = []string{}
	}

	s.playlists = append(s.playlists, &p)
	return s.persist()
}

// Replace overwrites the full definition set (bulk import). Invalid entries
// are dropped and counted so the caller can surface them to the user.
func (s *Store) Replace(data []byte) (kept, dropped int, err error) {
	var entries json.RawMessage = data

	valid, droppedCount, err := decodeEntries(entries)
	if err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists = valid
	if err := s.persist(); err != nil {
		return 0, 0, err
	}

	return len(valid), droppedCount, nil
}

// UpdateByID patches a single definition's membership snapshot and sync
// timestamp without disturbing other playlists.
//
// Guard: if the definition was deleted by a concurrent operation between
// the caller's read and this write, the stale snapshot must not re-populate
// it; the update is refused with [shared.ErrStaleSnapshot].
func (s *Store) UpdateByID(playlistID string, trackURIs []string, lastSyncAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.playlists {
		if p.PlaylistID != playlistID {
			continue
		}

		uris := make([]string, len(trackURIs))
		copy(uris, trackURIs)
		p.TrackURIs = uris
		p.LastSyncAt = lastSyncAt
		return s.persist()
	}

	return fmt.Errorf("%w: playlist %s no longer exists", shared.ErrStaleSnapshot, playlistID)
}

// SetActive toggles a definition's activity flag.
func (s *Store) SetActive(playlistID string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.playlists {
		if p.PlaylistID == playlistID {
			p.IsActive = active
			return s.persist()
		}
	}

	return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}

// Delete removes a definition by playlist ID.
func (s *Store) Delete(playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, p := range s.playlists {
		if p.PlaylistID == playlistID {
			s.playlists = append(s.playlists[:i], s.playlists[i+1:]...)
			return s.persist()
		}
	}

	return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
}

// Cleanup removes definitions whose playlist no longer exists remotely.
//
// The remote listing is consulted in bulk, and deletions are applied only
// when the listing call itself succeeded and returned at least one playlist;
// a transient API failure must not wipe every definition.
func (s *Store) Cleanup(remoteIDs []string, listErr error) ([]string, error) {
	if listErr != nil {
		s.logger.Warn("skipping playlist cleanup, remote listing failed", "err", listErr)
		return nil, nil
	}
	if len(remoteIDs) == 0 {
		s.logger.Warn("skipping playlist cleanup, remote listing empty")
		return nil, nil
	}

	existing := make(map[string]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		existing[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	remaining := s.playlists[:0]
	for _, p := range s.playlists {
		if _, ok := existing[p.PlaylistID]; ok {
			remaining = append(remaining, p)
		} else {
			removed = append(removed, p.PlaylistName)
		}
	}

	if len(removed) == 0 {
		return nil, nil
	}

	s.playlists = remaining
	if err := s.persist(); err != nil {
		return nil, err
	}

	return removed, nil
}

// Export serializes all definitions as a pretty-printed JSON array, the
// same shape Replace accepts.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.MarshalIndent(s.playlists, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlists: %w", err)
	}
	return data, nil
}

// Reload re-reads definitions from disk, used when the backing file changes
// externally. Malformed entries are dropped exactly as on initial load.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read playlist store: %w", err)
	}

	kept, dropped, err := decodeDocument(data)
	if err != nil {
		return fmt.Errorf("failed to parse playlist store: %w", err)
	}
	if dropped > 0 {
		s.logger.Warn("dropped malformed playlist entries on reload", "dropped", dropped)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playlists = kept
	return nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

func copyPlaylist(p *models.SmartPlaylist) models.SmartPlaylist {
	cp := *p
	cp.TrackURIs = make([]string, len(p.TrackURIs))
	copy(cp.TrackURIs, p.TrackURIs)
	return cp
}
