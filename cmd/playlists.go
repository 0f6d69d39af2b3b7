package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"cratesync/internal/models"
	"cratesync/internal/ui"
)

// parseTagRef parses "category:subcategory:tag" into a TagReference.
func parseTagRef(s string) (models.TagReference, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return models.TagReference{}, fmt.Errorf("invalid tag reference %q: expected category:subcategory:tag", s)
	}
	return models.TagReference{CategoryID: parts[0], SubcategoryID: parts[1], TagID: parts[2]}, nil
}

func parseTagRefs(values []string) ([]models.TagReference, error) {
	refs := make([]models.TagReference, 0, len(values))
	for _, v := range values {
		ref, err := parseTagRef(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// criteriaFromFlags builds a Criteria from the create command's flags.
func criteriaFromFlags(cmd *cli.Command) (models.Criteria, error) {
	include, err := parseTagRefs(cmd.StringSlice("tag"))
	if err != nil {
		return models.Criteria{}, err
	}
	exclude, err := parseTagRefs(cmd.StringSlice("exclude-tag"))
	if err != nil {
		return models.Criteria{}, err
	}

	criteria := models.Criteria{
		ActiveTagFilters:   include,
		ExcludedTagFilters: exclude,
		IsOrFilterMode:     cmd.Bool("any"),
		RatingFilters:      cmd.IntSlice("rating"),
	}

	if v := cmd.Int("energy-min"); v >= 0 {
		criteria.EnergyMinFilter = &v
	}
	if v := cmd.Int("energy-max"); v >= 0 {
		criteria.EnergyMaxFilter = &v
	}
	if v := cmd.Float("bpm-min"); v >= 0 {
		criteria.BpmMinFilter = &v
	}
	if v := cmd.Float("bpm-max"); v >= 0 {
		criteria.BpmMaxFilter = &v
	}

	for _, rating := range criteria.RatingFilters {
		if rating < 1 || rating > 5 {
			return models.Criteria{}, fmt.Errorf("invalid rating %d: must be 1-5", rating)
		}
	}

	return criteria, nil
}

// PlaylistsList prints all smart playlist definitions.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	all := s.store.All()

	if cmd.Bool("json") {
		return r.writeJSON(all, true)
	}

	if len(all) == 0 {
		return r.writePlain("No smart playlists defined. Create one with 'cratesync playlists create'.\n")
	}

	for _, p := range all {
		state := "inactive"
		if p.IsActive {
			state = "active"
		}
		if err := r.writePlain("%s  %s  [%s]  %d tracks  %s\n",
			p.PlaylistID, p.PlaylistName, state, len(p.TrackURIs), ui.DescribeCriteria(p.Criteria)); err != nil {
			return err
		}
	}

	return nil
}

// PlaylistsCreate defines a new smart playlist and, when active and a
// remote client is available, runs its first full sync.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	criteria, err := criteriaFromFlags(cmd)
	if err != nil {
		return err
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	playlist := models.SmartPlaylist{
		PlaylistID:   cmd.String("id"),
		PlaylistName: cmd.String("name"),
		Criteria:     criteria,
		IsActive:     !cmd.Bool("inactive"),
		CreatedAt:    time.Now().UTC(),
		TrackURIs:    []string{},
	}

	if err := s.store.Create(playlist); err != nil {
		return err
	}

	r.logger.Info("smart playlist created", "id", playlist.PlaylistID, "name", playlist.PlaylistName)

	if !playlist.IsActive {
		return nil
	}

	eng, err := s.requireEngine()
	if err != nil {
		r.logger.Warn("created without initial sync", "error", err)
		return nil
	}

	eng.EnqueueFullSync(ctx, playlist.PlaylistID)
	return eng.Wait(ctx)
}

// PlaylistsDelete removes a definition. The remote playlist keeps its
// current tracks.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("playlist ID is required")
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Delete(id); err != nil {
		return err
	}

	return r.writePlain("Deleted smart playlist %s.\n", id)
}

// PlaylistsActivate re-enables a definition and runs a full sync to bring
// the remote playlist back in line with its criteria.
func (r *Runner) PlaylistsActivate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("playlist ID is required")
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.SetActive(id, true); err != nil {
		return err
	}

	eng, err := s.requireEngine()
	if err != nil {
		r.logger.Warn("activated without sync", "error", err)
		return nil
	}

	eng.EnqueueFullSync(ctx, id)
	return eng.Wait(ctx)
}

// PlaylistsDeactivate pauses a definition. Tag changes stop propagating to
// its remote playlist until it is activated again.
func (r *Runner) PlaylistsDeactivate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("playlist ID is required")
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.SetActive(id, false); err != nil {
		return err
	}

	return r.writePlain("Deactivated smart playlist %s.\n", id)
}

// PlaylistsStatus compares each definition's cached membership against the
// remote track count and flags the ones that need a sync.
func (r *Runner) PlaylistsStatus(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.requireEngine(); err != nil {
		return err
	}

	all := s.store.All()
	if len(all) == 0 {
		return r.writePlain("No smart playlists defined.\n")
	}

	ids := make([]string, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.PlaylistID)
	}

	counts, err := s.remote.GetPlaylistTrackCounts(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to fetch remote track counts: %w", err)
	}

	for _, p := range all {
		remote, ok := counts[p.PlaylistID]
		if !ok {
			if err := r.writePlain("%s  %s  remote count unavailable\n", p.PlaylistID, p.PlaylistName); err != nil {
				return err
			}
			continue
		}

		marker := "in sync"
		if remote != len(p.TrackURIs) {
			marker = "needs sync"
		}
		if err := r.writePlain("%s  %s  cached=%d remote=%d  %s\n",
			p.PlaylistID, p.PlaylistName, len(p.TrackURIs), remote, marker); err != nil {
			return err
		}
	}

	return nil
}

// PlaylistsCleanup drops definitions whose remote playlist no longer
// exists. When the remote listing fails nothing is removed.
func (r *Runner) PlaylistsCleanup(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.requireEngine(); err != nil {
		return err
	}

	remoteIDs, listErr := s.remote.GetAllUserPlaylists(ctx)

	removed, err := s.store.Cleanup(remoteIDs, listErr)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		return r.writePlain("Nothing to clean up.\n")
	}

	for _, name := range removed {
		if err := r.writePlain("Removed stale definition: %s\n", name); err != nil {
			return err
		}
	}

	return nil
}

// PlaylistsExport writes all definitions as a JSON array.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.store.Export()
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return r.writePlain("Exported %d definitions to %s.\n", len(s.store.All()), path)
	}

	if _, err := r.output.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// PlaylistsImport replaces all definitions with the contents of a JSON
// array file. Invalid entries are dropped, not imported.
func (r *Runner) PlaylistsImport(ctx context.Context, cmd *cli.Command) error {
	data, err := os.ReadFile(cmd.String("input"))
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	kept, dropped, err := s.store.Replace(data)
	if err != nil {
		return err
	}

	if dropped > 0 {
		r.logger.Warn("some entries were invalid and skipped", "dropped", dropped)
	}

	return r.writePlain("Imported %d definitions (%d dropped).\n", kept, dropped)
}
