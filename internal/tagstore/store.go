// package tagstore owns the per-track tag, rating, energy, and BPM data.
//
// The store keeps an in-memory mirror of the tracks table so that criteria
// evaluation never touches the database, and emits a typed Change event for
// every mutation so the sync engine can trigger incremental reconciliation.
package tagstore

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"cratesync/internal/models"
)

// Change maps track URIs to their updated records. A nil record signals the
// track was deleted or fully untagged.
type Change map[string]*models.TrackRecord

// subscriber channels are buffered; a full channel drops the event and logs
// it rather than blocking a mutation.
const subscriberBuffer = 64

// Store is the authoritative tag data store. All mutations write through to
// SQLite, update the in-memory mirror, and notify subscribers.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	mu      sync.RWMutex
	records map[string]*models.TrackRecord
	subs    map[int]chan Change
	nextSub int
}

// NewStore creates a Store backed by db and loads the in-memory mirror.
func NewStore(db *sql.DB, logger *log.Logger) (*Store, error) {
	s := &Store{
		db:      db,
		logger:  logger,
		records: make(map[string]*models.TrackRecord),
		subs:    make(map[int]chan Change),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

// load reads the tracks and track_tags tables into the mirror.
func (s *Store) load() error {
	rows, err := s.db.Query("SELECT uri, rating, energy, bpm, created_at, modified_at FROM tracks")
	if err != nil {
		return fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec models.TrackRecord
			bpm sql.NullFloat64
		)
		if err := rows.Scan(&rec.URI, &rec.Rating, &rec.Energy, &bpm, &rec.CreatedAt, &rec.ModifiedAt); err != nil {
			return fmt.Errorf("failed to scan track: %w", err)
		}
		if bpm.Valid {
			v := bpm.Float64
			rec.BPM = &v
		}
		rec.Tags = []models.TagReference{}
		s.records[rec.URI] = &rec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	tagRows, err := s.db.Query("SELECT track_uri, category_id, subcategory_id, tag_id FROM track_tags")
	if err != nil {
		return fmt.Errorf("failed to query track tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			uri string
			ref models.TagReference
		)
		if err := tagRows.Scan(&uri, &ref.CategoryID, &ref.SubcategoryID, &ref.TagID); err != nil {
			return fmt.Errorf("failed to scan track tag: %w", err)
		}
		if rec, ok := s.records[uri]; ok {
			rec.Tags = append(rec.Tags, ref)
		}
	}
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	return nil
}

// Subscribe registers a listener for tag mutations. The returned cancel
// function removes the subscription and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	ch := make(chan Change, subscriberBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}

	return ch, cancel
}

// notify fans a change out to all subscribers without blocking mutations.
func (s *Store) notify(change Change) {
	for id, ch := range s.subs {
		select {
		case ch <- change:
		default:
			s.logger.Warn("dropping tag change event, subscriber not keeping up", "subscriber", id)
		}
	}
}

// Get returns a copy of the record for uri, or nil when untracked.
func (s *Store) Get(uri string) *models.TrackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[uri]
	if !ok {
		return nil
	}
	cp := copyRecord(rec)
	return &cp
}

// All returns a snapshot copy of the full {trackURI -> record} mapping.
func (s *Store) All() map[string]*models.TrackRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.TrackRecord, len(s.records))
	for uri, rec := range s.records {
		cp := copyRecord(rec)
		out[uri] = &cp
	}
	return out
}

// SetRating sets the 0-5 rating for a track (0 clears it).
func (s *Store) SetRating(uri string, rating int) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating must be 0-5, got %d", rating)
	}
	return s.mutate(uri, func(rec *models.TrackRecord) {
		rec.Rating = rating
	})
}

// SetEnergy sets the 0-10 energy level for a track (0 clears it).
func (s *Store) SetEnergy(uri string, energy int) error {
	if energy < 0 || energy > 10 {
		return fmt.Errorf("energy must be 0-10, got %d", energy)
	}
	return s.mutate(uri, func(rec *models.TrackRecord) {
		rec.Energy = energy
	})
}

// SetBPM sets the track tempo; a nil bpm clears it.
func (s *Store) SetBPM(uri string, bpm *float64) error {
	if bpm != nil && *bpm <= 0 {
		return fmt.Errorf("bpm must be positive, got %v", *bpm)
	}
	return s.mutate(uri, func(rec *models.TrackRecord) {
		rec.BPM = bpm
	})
}

// AddTag attaches a tag reference to a track. Adding a tag the track
// already has is a no-op but still persists the modified timestamp.
func (s *Store) AddTag(uri string, ref models.TagReference) error {
	return s.mutate(uri, func(rec *models.TrackRecord) {
		if !rec.HasTag(ref) {
			rec.Tags = append(rec.Tags, ref)
		}
	})
}

// RemoveTag detaches a tag reference from a track.
func (s *Store) RemoveTag(uri string, ref models.TagReference) error {
	return s.mutate(uri, func(rec *models.TrackRecord) {
		tags := rec.Tags[:0]
		for _, t := range rec.Tags {
			if t != ref {
				tags = append(tags, t)
			}
		}
		rec.Tags = tags
	})
}

// Upsert replaces a track's full record. Used by the local library scanner.
func (s *Store) Upsert(rec models.TrackRecord) error {
	if rec.URI == "" {
		return fmt.Errorf("track uri is required")
	}
	return s.mutate(rec.URI, func(existing *models.TrackRecord) {
		created := existing.CreatedAt
		*existing = rec
		existing.CreatedAt = created
		if existing.Tags == nil {
			existing.Tags = []models.TagReference{}
		}
	})
}

// DeleteTrack removes a track record entirely and notifies subscribers with
// a nil record so reconciliation drops it from matching playlists.
func (s *Store) DeleteTrack(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[uri]; !ok {
		return fmt.Errorf("track not tracked: %s", uri)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM track_tags WHERE track_uri = ?", uri); err != nil {
		return fmt.Errorf("failed to delete track tags: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM tracks WHERE uri = ?", uri); err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	delete(s.records, uri)
	s.notify(Change{uri: nil})
	return nil
}

// mutate applies fn to a working copy of the record for uri (creating one
// for previously-untracked URIs), persists it, swaps the mirror entry, and
// notifies subscribers with a copy.
func (s *Store) mutate(uri string, fn func(*models.TrackRecord)) error {
	if uri == "" {
		return fmt.Errorf("track uri is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	var working models.TrackRecord
	if existing, ok := s.records[uri]; ok {
		working = copyRecord(existing)
	} else {
		working = models.TrackRecord{URI: uri, Tags: []models.TagReference{}, CreatedAt: now}
	}

	fn(&working)
	working.ModifiedAt = now

	if err := s.persist(&working); err != nil {
		return err
	}

	s.records[uri] = &working

	out := copyRecord(&working)
	s.notify(Change{uri: &out})
	return nil
}

// persist writes a full record (track row and tag set) in one transaction.
func (s *Store) persist(rec *models.TrackRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var bpm sql.NullFloat64
	if rec.BPM != nil {
		bpm = sql.NullFloat64{Float64: *rec.BPM, Valid: true}
	}

	query := `
		INSERT INTO tracks (uri, rating, energy, bpm, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET rating = ?, energy = ?, bpm = ?, modified_at = ?
	`
	_, err = tx.Exec(query,
		rec.URI, rec.Rating, rec.Energy, bpm, rec.CreatedAt, rec.ModifiedAt,
		rec.Rating, rec.Energy, bpm, rec.ModifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert track: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM track_tags WHERE track_uri = ?", rec.URI); err != nil {
		return fmt.Errorf("failed to clear track tags: %w", err)
	}

	for _, ref := range rec.Tags {
		_, err := tx.Exec(
			"INSERT INTO track_tags (track_uri, category_id, subcategory_id, tag_id) VALUES (?, ?, ?, ?)",
			rec.URI, ref.CategoryID, ref.SubcategoryID, ref.TagID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert track tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit track: %w", err)
	}

	return nil
}

func copyRecord(rec *models.TrackRecord) models.TrackRecord {
	cp := *rec
	cp.Tags = make([]models.TagReference, len(rec.Tags))
	copy(cp.Tags, rec.Tags)
	if rec.BPM != nil {
		v := *rec.BPM
		cp.BPM = &v
	}
	return cp
}
