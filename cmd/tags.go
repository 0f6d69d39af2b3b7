package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"cratesync/internal/localfiles"
	"cratesync/internal/shared"
)

// TagsRate sets a track's rating and syncs the affected playlists.
func (r *Runner) TagsRate(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return r.runWithSync(ctx, s, func() error {
		return s.tags.SetRating(cmd.String("track"), cmd.Int("rating"))
	})
}

// TagsEnergy sets a track's energy level and syncs the affected playlists.
func (r *Runner) TagsEnergy(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return r.runWithSync(ctx, s, func() error {
		return s.tags.SetEnergy(cmd.String("track"), cmd.Int("level"))
	})
}

// TagsBPM sets a track's BPM; zero clears it.
func (r *Runner) TagsBPM(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	var bpm *float64
	if v := cmd.Float("value"); v > 0 {
		bpm = &v
	} else if v < 0 {
		return fmt.Errorf("invalid BPM %v: must be positive, or 0 to clear", v)
	}

	return r.runWithSync(ctx, s, func() error {
		return s.tags.SetBPM(cmd.String("track"), bpm)
	})
}

// TagsAdd attaches a tag to a track and syncs the affected playlists.
func (r *Runner) TagsAdd(ctx context.Context, cmd *cli.Command) error {
	ref, err := parseTagRef(cmd.String("ref"))
	if err != nil {
		return err
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return r.runWithSync(ctx, s, func() error {
		return s.tags.AddTag(cmd.String("track"), ref)
	})
}

// TagsRemove detaches a tag from a track and syncs the affected playlists.
func (r *Runner) TagsRemove(ctx context.Context, cmd *cli.Command) error {
	ref, err := parseTagRef(cmd.String("ref"))
	if err != nil {
		return err
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return r.runWithSync(ctx, s, func() error {
		return s.tags.RemoveTag(cmd.String("track"), ref)
	})
}

// TagsDelete removes a track's record. Playlists treat a deleted record the
// same as one that stopped matching, so the track is removed on sync.
func (r *Runner) TagsDelete(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("track")
	if uri == "" {
		return fmt.Errorf("track URI is required")
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	return r.runWithSync(ctx, s, func() error {
		return s.tags.DeleteTrack(uri)
	})
}

// TagsScan walks the local files directory, reads audio metadata, and
// upserts a record per file so local tracks can be tagged and filtered.
func (r *Runner) TagsScan(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	dir := cmd.String("dir")
	if dir == "" {
		dir = s.config.Library.LocalFilesDir
	}
	if dir == "" {
		return fmt.Errorf("no directory given: pass --dir or set library.local_files_dir")
	}

	records, err := localfiles.ScanDirectory(dir, shared.WithLogger(r.logger, "component", "localfiles"))
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	var upserted int
	err = r.runWithSync(ctx, s, func() error {
		for _, rec := range records {
			if existing := s.tags.Get(rec.URI); existing != nil {
				continue
			}
			if err := s.tags.Upsert(rec); err != nil {
				return fmt.Errorf("failed to save %s: %w", rec.URI, err)
			}
			upserted++
		}
		return nil
	})
	if err != nil {
		return err
	}

	return r.writePlain("Scanned %d files, added %d new records.\n", len(records), upserted)
}

// TagsShow prints a track's record.
func (r *Runner) TagsShow(ctx context.Context, cmd *cli.Command) error {
	uri := cmd.StringArg("track")
	if uri == "" {
		return fmt.Errorf("track URI is required")
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	rec := s.tags.Get(uri)
	if rec == nil {
		return fmt.Errorf("%w: no record for %s", shared.ErrTrackNotFound, uri)
	}

	return r.writeJSON(rec, true)
}
