package engine

import "github.com/charmbracelet/log"

// Notifier surfaces sync outcomes to the user. Reconciliation never returns
// remote-call failures to its caller; anything the user should see goes
// through this interface as a transient notification.
type Notifier interface {
	// TrackAdded fires when a matching track lands in a playlist.
	TrackAdded(playlistName, trackURI string)

	// TrackRemoved fires when a track is removed from a playlist.
	TrackRemoved(playlistName, trackURI string)

	// LocalFileNeedsManualAdd fires when a local file matches criteria but
	// the remote refuses to insert it automatically. Must be surfaced, not
	// silently dropped.
	LocalFileNeedsManualAdd(playlistName, trackURI string)

	// DuplicateLost fires when deduplication removed a track but failed to
	// re-add it: the track is now absent from the playlist entirely.
	DuplicateLost(playlistName, trackURI string, err error)

	// SyncSummary reports one consolidated full-sync result.
	SyncSummary(playlistName string, added, removed, deduplicated int)

	// AlreadyInSync reports a full sync that changed nothing.
	AlreadyInSync(playlistName string)
}

// LogNotifier writes notifications to the structured logger. Used as the
// default sink and by tests that only care about reconciliation effects.
type LogNotifier struct {
	Logger *log.Logger
}

func (n *LogNotifier) TrackAdded(playlistName, trackURI string) {
	n.Logger.Info("track added", "playlist", playlistName, "track", trackURI)
}

func (n *LogNotifier) TrackRemoved(playlistName, trackURI string) {
	n.Logger.Info("track removed", "playlist", playlistName, "track", trackURI)
}

func (n *LogNotifier) LocalFileNeedsManualAdd(playlistName, trackURI string) {
	n.Logger.Warn("local file matches but must be added manually", "playlist", playlistName, "track", trackURI)
}

func (n *LogNotifier) DuplicateLost(playlistName, trackURI string, err error) {
	n.Logger.Error("track lost during deduplication", "playlist", playlistName, "track", trackURI, "err", err)
}

func (n *LogNotifier) SyncSummary(playlistName string, added, removed, deduplicated int) {
	n.Logger.Info("sync complete", "playlist", playlistName, "added", added, "removed", removed, "deduplicated", deduplicated)
}

func (n *LogNotifier) AlreadyInSync(playlistName string) {
	n.Logger.Info("already in sync", "playlist", playlistName)
}
