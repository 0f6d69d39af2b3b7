// package models defines the data model for the smart playlist sync engine.
package models

import (
	"fmt"
	"time"
)

// TagReference identifies a single tag within the user's tag taxonomy.
// Equality is exact match on all three parts.
type TagReference struct {
	CategoryID    string `json:"categoryId"`
	SubcategoryID string `json:"subcategoryId"`
	TagID         string `json:"tagId"`
}

// TrackRecord holds the per-track tag state owned by the tag data store.
// The sync engine only reads it. Rating 0 and energy 0 mean "unset";
// a nil BPM means the track's tempo is unknown.
type TrackRecord struct {
	URI        string         `json:"uri"`
	Rating     int            `json:"rating"`
	Energy     int            `json:"energy"`
	BPM        *float64       `json:"bpm,omitempty"`
	Tags       []TagReference `json:"tags"`
	CreatedAt  time.Time      `json:"createdAt"`
	ModifiedAt time.Time      `json:"modifiedAt"`
}

// HasTag reports whether the record carries the given tag reference.
func (r *TrackRecord) HasTag(ref TagReference) bool {
	for _, t := range r.Tags {
		if t == ref {
			return true
		}
	}
	return false
}

// SmartPlaylist is a persisted playlist definition whose remote membership
// is kept consistent with its Criteria.
//
// TrackURIs is the engine's last-known-good membership snapshot. It is a
// cache: it may diverge from the actual remote contents between a mutation
// and the next successful reconciliation, and reconciliation overwrites it.
type SmartPlaylist struct {
	PlaylistID   string    `json:"playlistId"`
	PlaylistName string    `json:"playlistName"`
	Criteria     Criteria  `json:"criteria"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	LastSyncAt   time.Time `json:"lastSyncAt"`
	TrackURIs    []string  `json:"trackUris"`
}

// Validate checks the definition has the shape required for persistence.
// Entries failing validation are dropped at load/import boundaries.
func (p *SmartPlaylist) Validate() error {
	if p.PlaylistID == "" {
		return fmt.Errorf("playlistId is required")
	}
	if p.PlaylistName == "" {
		return fmt.Errorf("playlistName is required")
	}
	if p.Criteria.ActiveTagFilters == nil {
		return fmt.Errorf("criteria.activeTagFilters must be an array")
	}
	return nil
}

// HasTrack reports whether uri is present in the membership snapshot.
func (p *SmartPlaylist) HasTrack(uri string) bool {
	for _, u := range p.TrackURIs {
		if u == uri {
			return true
		}
	}
	return false
}
