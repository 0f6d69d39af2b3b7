package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"cratesync/internal/engine"
	"cratesync/internal/playlists"
	"cratesync/internal/services"
	"cratesync/internal/shared"
	"cratesync/internal/tagstore"
	"cratesync/internal/ui"
)

// Runner holds the dependencies shared by all CLI commands and provides a
// method for each command action.
type Runner struct {
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, tagsCommand, syncCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// session bundles the stores and engine a command needs, built from the
// config the command's --config flag points at.
type session struct {
	config    *shared.Config
	db        *sql.DB
	tags      *tagstore.Store
	store     *playlists.Store
	remote    services.RemoteClient
	engine    *engine.Engine
	notifier  *ui.ConsoleNotifier
	stopWatch func()
}

// newSession loads config and wires the tag store, playlist store, remote
// client, and sync engine. When the remote client cannot be built or
// authenticated the session still works for local operations; remote is nil
// and sync-dependent commands must check it.
func (r *Runner) newSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	configPath := cmd.String("config")

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := shared.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		config = loaded
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	tags, err := tagstore.NewStore(db, shared.WithLogger(r.logger, "component", "tagstore"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load tag store: %w", err)
	}

	store, err := playlists.NewStore(config.Storage.PlaylistsPath, shared.WithLogger(r.logger, "component", "playlists"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load playlist store: %w", err)
	}

	s := &session{config: config, db: db, tags: tags, store: store}
	s.notifier = ui.NewConsoleNotifier(r.output)

	if remote, err := r.buildRemote(ctx, config); err != nil {
		r.logger.Warn("remote client unavailable, sync disabled for this run", "err", err)
	} else {
		s.remote = remote
	}

	if s.remote != nil {
		reconciler := engine.NewReconciler(s.remote, tags, store, s.notifier,
			shared.WithLogger(r.logger, "component", "reconciler"))
		s.engine = engine.New(reconciler, shared.WithLogger(r.logger, "component", "queue"))
	}

	return s, nil
}

// buildRemote constructs and authenticates the Spotify client from config.
func (r *Runner) buildRemote(ctx context.Context, config *shared.Config) (services.RemoteClient, error) {
	client, err := services.NewSpotifyClient(config.Remote)
	if err != nil {
		return nil, err
	}

	if config.Remote.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	if err := client.Authenticate(ctx, map[string]string{"access_token": config.Remote.AccessToken}); err != nil {
		return nil, err
	}

	return client, nil
}

// requireEngine returns the session's engine or an explanatory error for
// commands that cannot run without the remote client.
func (s *session) requireEngine() (*engine.Engine, error) {
	if s.engine == nil {
		return nil, fmt.Errorf("%w: configure remote credentials and run 'cratesync auth'", shared.ErrNotAuthenticated)
	}
	return s.engine, nil
}

// Close releases the session's resources.
func (s *session) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// runWithSync subscribes the engine to tag store events, runs fn, then
// drains the queue so every triggered reconciliation completes before the
// command exits. Without an engine, fn runs alone and mutations persist but
// do not sync.
func (r *Runner) runWithSync(ctx context.Context, s *session, fn func() error) error {
	if s.engine == nil {
		r.logger.Warn("no remote client: changes saved locally, playlists not synced")
		return fn()
	}

	events, cancel := s.tags.Subscribe()
	done := make(chan struct{})
	go func() {
		s.engine.Bridge(ctx, events)
		close(done)
	}()

	fnErr := fn()

	// Closing the subscription lets Bridge drain buffered events and exit.
	cancel()
	<-done

	if err := s.engine.Wait(ctx); err != nil {
		return err
	}

	return fnErr
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
