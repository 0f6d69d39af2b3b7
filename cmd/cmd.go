// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// authCommand handles the OAuth consent flow with the remote service.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with the remote streaming service using OAuth2",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "code",
				Usage: "Authorization code from the consent redirect",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the consent URL instead of opening a browser",
			},
		},
		Action: r.Auth,
	}
}

// playlistsCommand handles smart playlist definition management.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Manage smart playlist definitions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List smart playlist definitions",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "create",
				Usage: "Define a new smart playlist",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "id", Usage: "Remote playlist ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Playlist name", Required: true},
					&cli.StringSliceFlag{Name: "tag", Usage: "Include tag reference (category:subcategory:tag), repeatable"},
					&cli.StringSliceFlag{Name: "exclude-tag", Usage: "Exclude tag reference, repeatable"},
					&cli.BoolFlag{Name: "any", Usage: "Match any include tag instead of all"},
					&cli.IntSliceFlag{Name: "rating", Usage: "Acceptable rating (1-5), repeatable"},
					&cli.IntFlag{Name: "energy-min", Usage: "Minimum energy (1-10)", Value: -1},
					&cli.IntFlag{Name: "energy-max", Usage: "Maximum energy (1-10)", Value: -1},
					&cli.FloatFlag{Name: "bpm-min", Usage: "Minimum BPM", Value: -1},
					&cli.FloatFlag{Name: "bpm-max", Usage: "Maximum BPM", Value: -1},
					&cli.BoolFlag{Name: "inactive", Usage: "Create the definition without activating it"},
				},
				Action: r.PlaylistsCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a smart playlist definition (the remote playlist is untouched)",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistsDelete,
			},
			{
				Name:      "activate",
				Usage:     "Activate a definition and run a full sync",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistsActivate,
			},
			{
				Name:      "deactivate",
				Usage:     "Deactivate a definition; incremental sync skips it",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.PlaylistsDeactivate,
			},
			{
				Name:   "status",
				Usage:  "Compare cached membership against remote track counts",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistsStatus,
			},
			{
				Name:   "cleanup",
				Usage:  "Drop definitions whose remote playlist no longer exists",
				Flags:  []cli.Flag{configFlag()},
				Action: r.PlaylistsCleanup,
			},
			{
				Name:  "export",
				Usage: "Export definitions as a JSON array",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file path (default stdout)"},
				},
				Action: r.PlaylistsExport,
			},
			{
				Name:  "import",
				Usage: "Replace all definitions from a JSON array file",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Input file path", Required: true},
				},
				Action: r.PlaylistsImport,
			},
		},
	}
}

// tagsCommand handles tag, rating, energy, and BPM mutations. Every
// mutation triggers incremental sync of the active playlists.
func tagsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Edit per-track tags, ratings, energy, and BPM",
		Commands: []*cli.Command{
			{
				Name:  "rate",
				Usage: "Set a track's rating (0 clears)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "track", Usage: "Track URI", Required: true},
					&cli.IntFlag{Name: "rating", Usage: "Rating 0-5", Required: true},
				},
				Action: r.TagsRate,
			},
			{
				Name:  "energy",
				Usage: "Set a track's energy level (0 clears)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "track", Usage: "Track URI", Required: true},
					&cli.IntFlag{Name: "level", Usage: "Energy 0-10", Required: true},
				},
				Action: r.TagsEnergy,
			},
			{
				Name:  "bpm",
				Usage: "Set a track's BPM (0 clears)",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "track", Usage: "Track URI", Required: true},
					&cli.FloatFlag{Name: "value", Usage: "Beats per minute", Required: true},
				},
				Action: r.TagsBPM,
			},
			{
				Name:  "add",
				Usage: "Attach a tag to a track",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "track", Usage: "Track URI", Required: true},
					&cli.StringFlag{Name: "ref", Usage: "Tag reference (category:subcategory:tag)", Required: true},
				},
				Action: r.TagsAdd,
			},
			{
				Name:  "remove",
				Usage: "Detach a tag from a track",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "track", Usage: "Track URI", Required: true},
					&cli.StringFlag{Name: "ref", Usage: "Tag reference (category:subcategory:tag)", Required: true},
				},
				Action: r.TagsRemove,
			},
			{
				Name:      "delete",
				Usage:     "Remove a track's record entirely",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.TagsDelete,
			},
			{
				Name:  "scan",
				Usage: "Scan the local files directory into the tag database",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{Name: "dir", Usage: "Directory to scan (default: library.local_files_dir)"},
				},
				Action: r.TagsScan,
			},
			{
				Name:      "show",
				Usage:     "Print a track's record",
				Arguments: []cli.Argument{&cli.StringArg{Name: "track"}},
				Flags:     []cli.Flag{configFlag()},
				Action:    r.TagsShow,
			},
		},
	}
}

// syncCommand triggers full-mode reconciliation.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Run a full sync for one playlist, or all active playlists",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     []cli.Flag{configFlag()},
		Action:    r.Sync,
	}
}

// tuiCommand opens the interactive playlist browser.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse smart playlists interactively",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}
