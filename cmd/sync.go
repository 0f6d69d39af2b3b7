package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"cratesync/internal/shared"
)

// Sync runs a full sync for one playlist or, with no argument, for every
// active definition. Each sync is a single queued operation, so concurrent
// invocations never interleave remote mutations.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	eng, err := s.requireEngine()
	if err != nil {
		return err
	}

	if id := cmd.StringArg("id"); id != "" {
		if _, ok := s.store.Get(id); !ok {
			return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
		}
		eng.EnqueueFullSync(ctx, id)
		return eng.Wait(ctx)
	}

	active := s.store.Active()
	if len(active) == 0 {
		return r.writePlain("No active smart playlists to sync.\n")
	}

	for _, p := range active {
		eng.EnqueueFullSync(ctx, p.PlaylistID)
	}

	return eng.Wait(ctx)
}
