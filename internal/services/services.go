// Package services defines the RemoteClient contract for the remote
// playlist API and its Spotify implementation.
package services

import (
	"context"
	"strings"
)

// AddResult reports the outcome of an add call. Success means the request
// was accepted; WasAdded is false when the remote declined to insert the
// track (already present, or a local file it cannot resolve).
type AddResult struct {
	Success  bool
	WasAdded bool
}

// RemoteClient is the remote playlist collaborator used by the reconciler.
// All operations are fallible and rate-limited; implementations must be
// safe for sequential use from the operation queue.
type RemoteClient interface {
	// AddTrackToPlaylist appends a track to a remote playlist.
	AddTrackToPlaylist(ctx context.Context, trackURI, playlistID string) (AddResult, error)

	// RemoveTrackFromPlaylist removes every occurrence of a track from a
	// remote playlist. Returns false when nothing was removed.
	RemoveTrackFromPlaylist(ctx context.Context, trackURI, playlistID string) (bool, error)

	// GetAllTrackUrisInPlaylist returns the playlist's current membership in
	// remote order. May return an empty slice for a missing playlist.
	GetAllTrackUrisInPlaylist(ctx context.Context, playlistID string) ([]string, error)

	// GetPlaylistTrackCounts returns track counts for the given playlists.
	// Best-effort: IDs missing from the result mean "unknown".
	GetPlaylistTrackCounts(ctx context.Context, playlistIDs []string) (map[string]int, error)

	// GetAllUserPlaylists returns the IDs of every playlist the user owns or
	// follows. Used only by the cleanup path.
	GetAllUserPlaylists(ctx context.Context) ([]string, error)

	// Name returns the name of the remote service.
	Name() string
}

// IsLocalURI reports whether a track URI refers to a local file rather than
// a catalog track. Local files can match criteria but the remote API cannot
// always add them automatically.
func IsLocalURI(uri string) bool {
	return strings.HasPrefix(uri, "spotify:local:")
}
