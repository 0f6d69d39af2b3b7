package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"cratesync/internal/models"
	"cratesync/internal/services"
	"cratesync/internal/shared"
)

// TagReader exposes the tag dataset to full-mode reconciliation.
type TagReader interface {
	All() map[string]*models.TrackRecord
}

// DefinitionStore is the slice of the playlist store the reconciler needs:
// the latest definitions at execution time and the write-back operation.
type DefinitionStore interface {
	Active() []models.SmartPlaylist
	Get(playlistID string) (models.SmartPlaylist, bool)
	UpdateByID(playlistID string, trackURIs []string, lastSyncAt time.Time) error
}

// Reconciler converges remote playlist membership with criteria matches.
// All remote calls are awaited sequentially, per playlist and per track,
// both to keep snapshot updates consistent and to respect the remote
// client's rate limits. Reconciler methods must only run from the
// operation queue.
type Reconciler struct {
	remote   services.RemoteClient
	tags     TagReader
	store    DefinitionStore
	notifier Notifier
	logger   *log.Logger
}

// NewReconciler wires a reconciler from its collaborators.
func NewReconciler(remote services.RemoteClient, tags TagReader, store DefinitionStore, notifier Notifier, logger *log.Logger) *Reconciler {
	return &Reconciler{
		remote:   remote,
		tags:     tags,
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// SyncChangedTracks is incremental reconciliation: given the tracks whose
// tag state changed (nil record = deleted/untagged), it patches every active
// playlist. Remote failures on individual tracks are logged and skipped; the
// next reconciliation pass catches up.
func (r *Reconciler) SyncChangedTracks(ctx context.Context, changes map[string]*models.TrackRecord) error {
	if len(changes) == 0 {
		return nil
	}

	// Deterministic track order keeps remote call sequences reproducible.
	uris := make([]string, 0, len(changes))
	for uri := range changes {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	for _, active := range r.store.Active() {
		// Re-fetch at execution time: an earlier operation in the same
		// batch may already have rewritten this playlist's snapshot.
		playlist, ok := r.store.Get(active.PlaylistID)
		if !ok {
			continue
		}

		snapshot := playlist.TrackURIs
		changed := false

		for _, uri := range uris {
			record := changes[uri]

			switch {
			case record == nil:
				if !contains(snapshot, uri) {
					continue
				}
				if r.removeTrack(ctx, &playlist, uri) {
					snapshot = remove(snapshot, uri)
					changed = true
				}

			case playlist.Criteria.Matches(record):
				if contains(snapshot, uri) {
					continue
				}
				if added, _ := r.addTrack(ctx, &playlist, uri); added {
					snapshot = append(snapshot, uri)
					changed = true
				}

			default:
				if !contains(snapshot, uri) {
					continue
				}
				if r.removeTrack(ctx, &playlist, uri) {
					snapshot = remove(snapshot, uri)
					changed = true
				}
			}
		}

		if changed {
			// Authoritative re-read closes any drift from partial failures.
			if remoteURIs, err := r.remote.GetAllTrackUrisInPlaylist(ctx, playlist.PlaylistID); err != nil {
				r.logger.Warn("failed to re-read playlist after sync, keeping local snapshot",
					"playlist", playlist.PlaylistName, "err", err)
			} else {
				snapshot = remoteURIs
			}

			if err := r.store.UpdateByID(playlist.PlaylistID, snapshot, time.Now().UTC()); err != nil {
				if errors.Is(err, shared.ErrStaleSnapshot) {
					r.logger.Warn("playlist deleted during sync, discarding snapshot", "playlist", playlist.PlaylistName)
					continue
				}
				return fmt.Errorf("failed to persist playlist %s: %w", playlist.PlaylistID, err)
			}
		}
	}

	return nil
}

// addTrack issues a remote add and surfaces the result. Returns whether the
// snapshot should include the track, and whether it was a local file the
// remote refused to auto-add.
func (r *Reconciler) addTrack(ctx context.Context, playlist *models.SmartPlaylist, uri string) (added, localOnly bool) {
	result, err := r.remote.AddTrackToPlaylist(ctx, uri, playlist.PlaylistID)
	if err != nil {
		r.logger.Error("failed to add track", "playlist", playlist.PlaylistName, "track", uri, "err", err)
		return false, false
	}
	if !result.Success {
		r.logger.Warn("remote declined track add", "playlist", playlist.PlaylistName, "track", uri)
		return false, false
	}

	if !result.WasAdded {
		if services.IsLocalURI(uri) {
			r.notifier.LocalFileNeedsManualAdd(playlist.PlaylistName, uri)
			return false, true
		}
		// Already present remotely; adopt it into the snapshot.
		return true, false
	}

	r.notifier.TrackAdded(playlist.PlaylistName, uri)
	return true, false
}

// removeTrack issues a remote removal, returning true on success.
func (r *Reconciler) removeTrack(ctx context.Context, playlist *models.SmartPlaylist, uri string) bool {
	removed, err := r.remote.RemoveTrackFromPlaylist(ctx, uri, playlist.PlaylistID)
	if err != nil {
		r.logger.Error("failed to remove track", "playlist", playlist.PlaylistName, "track", uri, "err", err)
		return false
	}
	if !removed {
		return false
	}

	r.notifier.TrackRemoved(playlist.PlaylistName, uri)
	return true
}

// FullSyncResult summarizes one full-mode reconciliation.
type FullSyncResult struct {
	PlaylistID   string
	PlaylistName string
	Added        int
	Removed      int
	Deduplicated int
	LocalSkipped int
}

// Changed reports whether the full sync performed any remote mutation.
func (res *FullSyncResult) Changed() bool {
	return res.Added > 0 || res.Removed > 0 || res.Deduplicated > 0
}

// FullSync is the self-healing convergence path: deduplicate the remote
// playlist, recompute the matching set from the whole tag dataset, and issue
// the corrective removals and additions. Running it twice with no
// intervening changes performs zero mutations the second time.
func (r *Reconciler) FullSync(ctx context.Context, playlistID string) (*FullSyncResult, error) {
	playlist, ok := r.store.Get(playlistID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}

	result := &FullSyncResult{PlaylistID: playlist.PlaylistID, PlaylistName: playlist.PlaylistName}

	remoteURIs, err := r.remote.GetAllTrackUrisInPlaylist(ctx, playlist.PlaylistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list playlist tracks: %v", shared.ErrAPIRequest, err)
	}

	deduped, err := r.deduplicate(ctx, &playlist, remoteURIs)
	if err != nil {
		return nil, err
	}
	result.Deduplicated = deduped

	baseline := remoteURIs
	if deduped > 0 {
		// Clean baseline after the duplicates were collapsed.
		baseline, err = r.remote.GetAllTrackUrisInPlaylist(ctx, playlist.PlaylistID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to re-list playlist tracks: %v", shared.ErrAPIRequest, err)
		}
	}

	matching := r.matchingTrackURIs(playlist.Criteria, baseline)
	matchingSet := toSet(matching)
	baselineSet := toSet(baseline)

	// Removals first, then additions, each awaited sequentially.
	for _, uri := range baseline {
		if _, ok := matchingSet[uri]; ok {
			continue
		}
		if r.removeTrack(ctx, &playlist, uri) {
			result.Removed++
		}
	}

	for _, uri := range matching {
		if _, ok := baselineSet[uri]; ok {
			continue
		}
		added, localOnly := r.addTrack(ctx, &playlist, uri)
		if added {
			result.Added++
		}
		if localOnly {
			result.LocalSkipped++
		}
	}

	// Full mode trusts its own computation: the matched set, not a
	// re-fetch, becomes the authoritative snapshot.
	if err := r.store.UpdateByID(playlist.PlaylistID, matching, time.Now().UTC()); err != nil {
		if errors.Is(err, shared.ErrStaleSnapshot) {
			r.logger.Warn("playlist deleted during full sync", "playlist", playlist.PlaylistName)
			return result, nil
		}
		return nil, fmt.Errorf("failed to persist playlist %s: %w", playlist.PlaylistID, err)
	}

	if result.Changed() {
		r.notifier.SyncSummary(playlist.PlaylistName, result.Added, result.Removed, result.Deduplicated)
	} else {
		r.notifier.AlreadyInSync(playlist.PlaylistName)
	}

	return result, nil
}

// deduplicate collapses duplicate entries: every URI occurring more than
// once is removed entirely, then re-added exactly once. Returns the net
// count removed. A failed re-add is actual data loss (the track is now
// absent from the playlist) and is reported as such, never swallowed.
func (r *Reconciler) deduplicate(ctx context.Context, playlist *models.SmartPlaylist, remoteURIs []string) (int, error) {
	counts := make(map[string]int, len(remoteURIs))
	order := []string{}
	for _, uri := range remoteURIs {
		if counts[uri] == 0 {
			order = append(order, uri)
		}
		counts[uri]++
	}

	deduped := 0
	for _, uri := range order {
		n := counts[uri]
		if n <= 1 {
			continue
		}

		if _, err := r.remote.RemoveTrackFromPlaylist(ctx, uri, playlist.PlaylistID); err != nil {
			r.logger.Error("failed to remove duplicate entries", "playlist", playlist.PlaylistName, "track", uri, "err", err)
			continue
		}

		result, err := r.remote.AddTrackToPlaylist(ctx, uri, playlist.PlaylistID)
		if err != nil || !result.Success || !result.WasAdded {
			if err == nil {
				err = shared.ErrDuplicateLoss
			}
			r.notifier.DuplicateLost(playlist.PlaylistName, uri, err)
			r.logger.Error("failed to re-add track after deduplication", "playlist", playlist.PlaylistName, "track", uri, "err", err)
			continue
		}

		deduped += n - 1
	}

	return deduped, nil
}

// matchingTrackURIs computes every track in the tag dataset matching the
// criteria. Tracks already in the baseline keep their remote order; new
// matches are appended in sorted order so repeated runs are deterministic.
func (r *Reconciler) matchingTrackURIs(criteria models.Criteria, baseline []string) []string {
	all := r.tags.All()

	matchingSet := make(map[string]struct{})
	for uri, record := range all {
		if criteria.Matches(record) {
			matchingSet[uri] = struct{}{}
		}
	}

	result := make([]string, 0, len(matchingSet))
	seen := make(map[string]struct{}, len(matchingSet))

	for _, uri := range baseline {
		if _, ok := matchingSet[uri]; ok {
			if _, dup := seen[uri]; !dup {
				result = append(result, uri)
				seen[uri] = struct{}{}
			}
		}
	}

	var added []string
	for uri := range matchingSet {
		if _, ok := seen[uri]; !ok {
			added = append(added, uri)
		}
	}
	sort.Strings(added)

	return append(result, added...)
}

func contains(uris []string, uri string) bool {
	for _, u := range uris {
		if u == uri {
			return true
		}
	}
	return false
}

func remove(uris []string, uri string) []string {
	out := uris[:0]
	for _, u := range uris {
		if u != uri {
			out = append(out, u)
		}
	}
	return out
}

func toSet(uris []string) map[string]struct{} {
	set := make(map[string]struct{}, len(uris))
	for _, u := range uris {
		set[u] = struct{}{}
	}
	return set
}
