package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleNotifier renders sync notifications as styled terminal lines. It is
// the CLI's implementation of the engine's Notifier interface; notifications
// may arrive from the queue goroutine while the command goroutine prints, so
// writes are serialized.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier creates a notifier writing to out (default os.Stdout).
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) printf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, format+"\n", args...)
}

func (n *ConsoleNotifier) TrackAdded(playlistName, trackURI string) {
	n.printf("%s %s → %s", styles.ok.Render("+"), trackURI, playlistName)
}

func (n *ConsoleNotifier) TrackRemoved(playlistName, trackURI string) {
	n.printf("%s %s ← %s", styles.err.Render("-"), trackURI, playlistName)
}

func (n *ConsoleNotifier) LocalFileNeedsManualAdd(playlistName, trackURI string) {
	n.printf("%s local file matches '%s' but must be added manually: %s",
		styles.warn.Render("!"), playlistName, trackURI)
}

func (n *ConsoleNotifier) DuplicateLost(playlistName, trackURI string, err error) {
	n.printf("%s track removed during deduplication and NOT restored in '%s': %s (%v)",
		styles.err.Render("✗"), playlistName, trackURI, err)
}

func (n *ConsoleNotifier) SyncSummary(playlistName string, added, removed, deduplicated int) {
	n.printf("%s '%s' synced: %d added, %d removed, %d duplicates collapsed",
		styles.ok.Render("✓"), playlistName, added, removed, deduplicated)
}

func (n *ConsoleNotifier) AlreadyInSync(playlistName string) {
	n.printf("%s '%s' already in sync", styles.help.Render("•"), playlistName)
}
