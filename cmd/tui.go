package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"cratesync/internal/ui"
)

// TUI opens the interactive playlist browser. When storage.watch is set,
// external edits to the playlists file are picked up while browsing.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.requireEngine(); err != nil {
		return err
	}

	if s.config.Storage.Watch {
		stop, err := s.store.Watch()
		if err != nil {
			r.logger.Warn("file watcher unavailable", "error", err)
		} else {
			s.stopWatch = stop
		}
	}

	return ui.Run(ctx, s.store, s.engine, s.remote)
}
